package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	api "github.com/micro2move/quiz-engine/internal/api/http"
	"github.com/micro2move/quiz-engine/internal/catalog"
	"github.com/micro2move/quiz-engine/internal/quiz"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cat, err := catalog.New(0.05, []catalog.Module{
		{
			ID:              "nsw_rules",
			Title:           "NSW Road Rules",
			RequiredScore:   1.0,
			CreditsOnPass:   50,
			CooldownSeconds: 300,
			Questions: []catalog.Question{
				{ID: "q1", Prompt: "Helmet fine?", Options: []string{"$349", "$150"}, CorrectOptionIndex: 0, Explanation: "It is $349."},
				{ID: "q2", Prompt: "Rear light colour?", Options: []string{"Red", "White"}, CorrectOptionIndex: 0, Explanation: "Red at the rear."},
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	engine := quiz.NewEngine(cat, quiz.NewMemoryStore(), zap.NewNop())
	now := func() time.Time { return testNow }

	r := chi.NewRouter()
	r.Get("/modules", api.ListModulesHandler(cat))
	r.Get("/modules/{moduleID}", api.GetModuleHandler(cat))
	r.Post("/modules/{moduleID}/attempts", api.SubmitAttemptHandler(engine, now))
	r.Get("/users/{userID}/modules/{moduleID}/progress", api.GetProgressHandler(engine, now))
	r.Get("/users/{userID}/modules/{moduleID}/attempts", api.ListAttemptsHandler(engine))
	r.Get("/users/{userID}/credits", api.GetCreditsHandler(engine, cat))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestListModules(t *testing.T) {
	srv := newTestServer(t)
	var list []map[string]any
	if code := getJSON(t, srv.URL+"/modules", &list); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(list) != 1 {
		t.Fatalf("want 1 module, got %d", len(list))
	}
	if _, has := list[0]["questions"]; has {
		t.Fatal("module list must omit the questions field")
	}
	if list[0]["question_count"].(float64) != 2 {
		t.Fatalf("question_count = %v", list[0]["question_count"])
	}
}

func TestGetModuleStripsAnswers(t *testing.T) {
	srv := newTestServer(t)
	var mod struct {
		Questions []map[string]any `json:"questions"`
	}
	if code := getJSON(t, srv.URL+"/modules/nsw_rules", &mod); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(mod.Questions) != 2 {
		t.Fatalf("want 2 questions, got %d", len(mod.Questions))
	}
	for _, q := range mod.Questions {
		if _, has := q["correct_option_index"]; has {
			t.Fatal("correct_option_index leaked to learners")
		}
		if _, has := q["explanation"]; has {
			t.Fatal("explanation leaked before grading")
		}
	}

	if code := getJSON(t, srv.URL+"/modules/ghost", nil); code != http.StatusNotFound {
		t.Fatalf("unknown module: status %d, want 404", code)
	}
}

func TestSubmitAttemptFlow(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/modules/nsw_rules/attempts"

	// Graded failure.
	var res quiz.Result
	if code := postJSON(t, url, `{"user_id":"u1","answers":[0,1]}`, &res); code != http.StatusOK {
		t.Fatalf("fail submit: status %d", code)
	}
	if res.Status != quiz.StatusFailed || res.Score != 0.5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Feedback) != 2 || res.Feedback[0].Explanation == "" {
		t.Fatalf("feedback missing: %+v", res.Feedback)
	}

	// Cooldown rejection maps to 409 and carries the deadline.
	res = quiz.Result{}
	if code := postJSON(t, url, `{"user_id":"u1","answers":[0,0]}`, &res); code != http.StatusConflict {
		t.Fatalf("cooldown submit: status %d, want 409", code)
	}
	if res.Status != quiz.StatusCooldownActive || res.NextAllowedAttemptAt == nil {
		t.Fatalf("unexpected cooldown body: %+v", res)
	}

	// Fatal inputs.
	if code := postJSON(t, url, `{"user_id":"u2","answers":[0]}`, nil); code != http.StatusBadRequest {
		t.Fatalf("short answers: status %d, want 400", code)
	}
	if code := postJSON(t, url, `{"answers":[0,0]}`, nil); code != http.StatusBadRequest {
		t.Fatalf("missing user: status %d, want 400", code)
	}
	if code := postJSON(t, url, `not json`, nil); code != http.StatusBadRequest {
		t.Fatalf("bad json: status %d, want 400", code)
	}
	if code := postJSON(t, srv.URL+"/modules/ghost/attempts", `{"user_id":"u1","answers":[0,0]}`, nil); code != http.StatusNotFound {
		t.Fatalf("unknown module: status %d, want 404", code)
	}
}

func TestProgressAndCredits(t *testing.T) {
	srv := newTestServer(t)

	var prog struct {
		Passed   bool       `json:"passed"`
		State    quiz.State `json:"state"`
		CanStart bool       `json:"can_start"`
	}
	if code := getJSON(t, srv.URL+"/users/u1/modules/nsw_rules/progress", &prog); code != http.StatusOK {
		t.Fatalf("progress: status %d", code)
	}
	if prog.Passed || prog.State != quiz.StateNotStarted || !prog.CanStart {
		t.Fatalf("default progress wrong: %+v", prog)
	}

	if code := postJSON(t, srv.URL+"/modules/nsw_rules/attempts", `{"user_id":"u1","answers":[0,0]}`, nil); code != http.StatusOK {
		t.Fatalf("pass submit: status %d", code)
	}

	prog.CanStart = false
	if code := getJSON(t, srv.URL+"/users/u1/modules/nsw_rules/progress", &prog); code != http.StatusOK {
		t.Fatalf("progress: status %d", code)
	}
	if !prog.Passed || prog.State != quiz.StatePassed {
		t.Fatalf("progress after pass wrong: %+v", prog)
	}

	var credits struct {
		Credits       int     `json:"credits"`
		CurrencyValue float64 `json:"currency_value"`
	}
	if code := getJSON(t, srv.URL+"/users/u1/credits", &credits); code != http.StatusOK {
		t.Fatalf("credits: status %d", code)
	}
	if credits.Credits != 50 || credits.CurrencyValue != 2.5 {
		t.Fatalf("credits wrong: %+v", credits)
	}

	var attempts []quiz.AttemptRecord
	if code := getJSON(t, srv.URL+"/users/u1/modules/nsw_rules/attempts", &attempts); code != http.StatusOK {
		t.Fatalf("attempts: status %d", code)
	}
	if len(attempts) != 1 || !attempts[0].Passed {
		t.Fatalf("attempt history wrong: %+v", attempts)
	}
}
