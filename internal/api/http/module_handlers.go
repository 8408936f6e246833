package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/micro2move/quiz-engine/internal/catalog"
)

// learnerQuestion is a question as served to learners: prompt and options
// only, never the correct index or the explanation.
type learnerQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
}

type learnerModule struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	RequiredScore   float64           `json:"required_score"`
	CreditsOnPass   int               `json:"credits_on_pass"`
	CooldownSeconds int               `json:"cooldown_seconds"`
	Questions       []learnerQuestion `json:"questions"`
}

func ListModulesHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cat.ListModules())
	}
}

func GetModuleHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "moduleID")
		m, err := cat.GetModule(id)
		if err != nil {
			if errors.Is(err, catalog.ErrModuleNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := learnerModule{
			ID:              m.ID,
			Title:           m.Title,
			Description:     m.Description,
			RequiredScore:   m.RequiredScore,
			CreditsOnPass:   m.CreditsOnPass,
			CooldownSeconds: m.CooldownSeconds,
			Questions:       make([]learnerQuestion, 0, len(m.Questions)),
		}
		for _, q := range m.Questions {
			out.Questions = append(out.Questions, learnerQuestion{ID: q.ID, Prompt: q.Prompt, Options: q.Options})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
