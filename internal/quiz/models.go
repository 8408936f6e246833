package quiz

import "time"

// UserProgress is the persisted per-user per-module state. Passed is
// monotonic: once true it never resets, even if a later re-attempt fails.
type UserProgress struct {
	UserID               string     `json:"user_id"`
	ModuleID             string     `json:"module_id"`
	Passed               bool       `json:"passed"`
	LastAttemptAt        *time.Time `json:"last_attempt_at"`
	NextAllowedAttemptAt *time.Time `json:"next_allowed_attempt_at"`
}

// UserAccount is the persisted per-user credit wallet. The engine only
// ever adds to it.
type UserAccount struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
}

// AttemptRecord is the history row written for every graded submission.
// Cooldown rejections and fatal input errors are not recorded.
type AttemptRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ModuleID       string    `json:"module_id"`
	Score          float64   `json:"score"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	Passed         bool      `json:"passed"`
	CreditsAwarded int       `json:"credits_awarded"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// State is the per-(user,module) gate state derived from UserProgress.
type State string

const (
	StateNotStarted  State = "not_started"
	StateCoolingDown State = "cooling_down"
	StateEligible    State = "eligible"
	StatePassed      State = "passed"
)

// StateOf derives the gate state at the given instant. A nil progress means
// the user has never attempted the module.
func StateOf(p *UserProgress, now time.Time) State {
	switch {
	case p == nil:
		return StateNotStarted
	case p.Passed:
		return StatePassed
	case p.NextAllowedAttemptAt == nil:
		return StateNotStarted
	case now.Before(*p.NextAllowedAttemptAt):
		return StateCoolingDown
	default:
		return StateEligible
	}
}

type Status string

const (
	StatusPassed         Status = "passed"
	StatusFailed         Status = "failed"
	StatusCooldownActive Status = "cooldown_active"
)

type QuestionFeedback struct {
	QuestionID  string `json:"question_id"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// Result is the structured outcome of SubmitAttempt. A cooldown rejection is
// a Result too, not an error: callers branch on Status. Feedback is nil only
// on the cooldown path.
type Result struct {
	Status               Status             `json:"status"`
	Score                float64            `json:"score"`
	RequiredScore        float64            `json:"required_score"`
	NextAllowedAttemptAt *time.Time         `json:"next_allowed_attempt_at"`
	CreditsAwarded       int                `json:"credits_awarded"`
	TotalCredits         int                `json:"total_credits"`
	Feedback             []QuestionFeedback `json:"feedback,omitempty"`
}
