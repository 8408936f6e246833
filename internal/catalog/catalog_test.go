package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validModules() []Module {
	return []Module{
		{
			ID:              "nsw_rules",
			Title:           "NSW Road Rules",
			RequiredScore:   1.0,
			CreditsOnPass:   50,
			CooldownSeconds: 300,
			Questions: []Question{
				{ID: "q1", Prompt: "Helmet fine?", Options: []string{"$150", "$349"}, CorrectOptionIndex: 1, Explanation: "It is $349."},
				{ID: "q2", Prompt: "Rear light colour?", Options: []string{"White", "Red"}, CorrectOptionIndex: 1, Explanation: "Red at the rear."},
			},
		},
		{
			ID:              "safety_basics",
			Title:           "Riding Safety Basics",
			RequiredScore:   0.5,
			CreditsOnPass:   25,
			CooldownSeconds: 60,
			Questions: []Question{
				{ID: "q1", Prompt: "Left turn signal?", Options: []string{"Right arm", "Left arm"}, CorrectOptionIndex: 1, Explanation: "Left arm out."},
			},
		},
	}
}

func TestGetModule(t *testing.T) {
	c, err := New(0.05, validModules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, err := c.GetModule("nsw_rules")
	if err != nil {
		t.Fatalf("GetModule: %v", err)
	}
	if m.Title != "NSW Road Rules" || len(m.Questions) != 2 {
		t.Fatalf("unexpected module: %+v", m)
	}

	if _, err := c.GetModule("missing"); err == nil {
		t.Fatal("expected error for unknown module")
	} else if !strings.Contains(err.Error(), "module not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListModulesPreservesOrderWithoutQuestions(t *testing.T) {
	c, err := New(0.05, validModules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	list := c.ListModules()
	if len(list) != 2 {
		t.Fatalf("want 2 modules, got %d", len(list))
	}
	if list[0].ID != "nsw_rules" || list[1].ID != "safety_basics" {
		t.Fatalf("catalog order not preserved: %v, %v", list[0].ID, list[1].ID)
	}
	if list[0].QuestionCount != 2 || list[1].QuestionCount != 1 {
		t.Fatalf("question counts wrong: %+v", list)
	}
}

func TestCreditsToCurrency(t *testing.T) {
	c, err := New(0.05, validModules())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.CreditsToCurrency(100); got != 5.0 {
		t.Fatalf("CreditsToCurrency(100) = %v, want 5.0", got)
	}
	if got := c.CreditsToCurrency(0); got != 0 {
		t.Fatalf("CreditsToCurrency(0) = %v, want 0", got)
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([]Module) []Module
		rate   float64
		want   string
	}{
		{"zero rate", nil, 0, "credit_to_currency_rate"},
		{"negative rate", nil, -1, "credit_to_currency_rate"},
		{"no modules", func(ms []Module) []Module { return nil }, 0.05, "no modules"},
		{"duplicate module id", func(ms []Module) []Module {
			ms[1].ID = ms[0].ID
			return ms
		}, 0.05, "duplicate module id"},
		{"required_score above 1", func(ms []Module) []Module {
			ms[0].RequiredScore = 1.5
			return ms
		}, 0.05, "required_score"},
		{"negative credits", func(ms []Module) []Module {
			ms[0].CreditsOnPass = -1
			return ms
		}, 0.05, "credits_on_pass"},
		{"negative cooldown", func(ms []Module) []Module {
			ms[0].CooldownSeconds = -1
			return ms
		}, 0.05, "cooldown_seconds"},
		{"no questions", func(ms []Module) []Module {
			ms[0].Questions = nil
			return ms
		}, 0.05, "no questions"},
		{"correct index out of range", func(ms []Module) []Module {
			ms[0].Questions[0].CorrectOptionIndex = 2
			return ms
		}, 0.05, "out of range"},
		{"negative correct index", func(ms []Module) []Module {
			ms[0].Questions[0].CorrectOptionIndex = -1
			return ms
		}, 0.05, "out of range"},
		{"one option", func(ms []Module) []Module {
			ms[0].Questions[0].Options = []string{"only"}
			ms[0].Questions[0].CorrectOptionIndex = 0
			return ms
		}, 0.05, "fewer than two options"},
		{"duplicate question id", func(ms []Module) []Module {
			ms[0].Questions[1].ID = ms[0].Questions[0].ID
			return ms
		}, 0.05, "duplicate question id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ms := validModules()
			if tc.mutate != nil {
				ms = tc.mutate(ms)
			}
			_, err := New(tc.rate, ms)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz_spec.json")
	good := `{
	  "credit_to_currency_rate": 0.1,
	  "modules": [{
	    "id": "m1", "title": "M1", "required_score": 1.0,
	    "credits_on_pass": 10, "cooldown_seconds": 30,
	    "questions": [{
	      "id": "q1", "question": "?", "options": ["a","b"],
	      "correct_option_index": 0, "explanation": "a it is"
	    }]
	  }]
	}`
	if err := os.WriteFile(path, []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := c.GetModule("m1"); err != nil {
		t.Fatalf("GetModule after Load: %v", err)
	}

	// A broken rewrite must not disturb the serving snapshot.
	if err := os.WriteFile(path, []byte(`{"credit_to_currency_rate": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(); err == nil {
		t.Fatal("expected Reload to fail on invalid spec")
	}
	if _, err := c.GetModule("m1"); err != nil {
		t.Fatalf("previous snapshot lost after failed reload: %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected Load to fail for missing file")
	}
}
