package catalog

// Question is one multiple-choice item. CorrectOptionIndex and Explanation
// are part of the catalog record; handlers strip them before serving learners.
type Question struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	Explanation        string   `json:"explanation"`
}

type Module struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	RequiredScore   float64    `json:"required_score"` // fraction in [0,1]; 1.0 = every question
	CreditsOnPass   int        `json:"credits_on_pass"`
	CooldownSeconds int        `json:"cooldown_seconds"`
	Questions       []Question `json:"questions"`
}

// ModuleSummary is a Module without its question list. The field is absent,
// not emptied, so consumers cannot mistake "no questions" for "hidden
// questions".
type ModuleSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	RequiredScore   float64 `json:"required_score"`
	CreditsOnPass   int     `json:"credits_on_pass"`
	CooldownSeconds int     `json:"cooldown_seconds"`
	QuestionCount   int     `json:"question_count"`
}

func (m Module) Summary() ModuleSummary {
	return ModuleSummary{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		RequiredScore:   m.RequiredScore,
		CreditsOnPass:   m.CreditsOnPass,
		CooldownSeconds: m.CooldownSeconds,
		QuestionCount:   len(m.Questions),
	}
}
