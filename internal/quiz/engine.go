package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/micro2move/quiz-engine/internal/catalog"
)

// ErrAnswerCount marks a submission whose answers slice does not match the
// module's question count. A caller defect: surfaced immediately, nothing
// is persisted, the attempt is not counted.
var ErrAnswerCount = errors.New("answer count mismatch")

// Engine grades attempts and owns every mutation of UserProgress and
// UserAccount. It is a synchronous computation over the injected store;
// "now" always comes from the caller so grading stays deterministic.
type Engine struct {
	catalog *catalog.Catalog
	store   Store
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // (userID, moduleID) submission serialization
}

func NewEngine(cat *catalog.Catalog, store Store, log *zap.Logger) *Engine {
	return &Engine{
		catalog: cat,
		store:   store,
		log:     log,
		locks:   map[string]*sync.Mutex{},
	}
}

// keyLock returns the mutex serializing submissions for one (user, module)
// pair. Entries are never removed; the map is bounded by active users times
// catalog size.
func (e *Engine) keyLock(userID, moduleID string) *sync.Mutex {
	k := userID + "\x00" + moduleID
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[k]
	if !ok {
		l = &sync.Mutex{}
		e.locks[k] = l
	}
	return l
}

// CanStartModule reports whether a user may start (or retry) a module at the
// given instant. The cooldown boundary itself is eligible: now at or after
// NextAllowedAttemptAt allows the attempt.
func CanStartModule(p *UserProgress, now time.Time) bool {
	if p == nil || p.NextAllowedAttemptAt == nil {
		return true
	}
	return !now.Before(*p.NextAllowedAttemptAt)
}

// SubmitAttempt grades one submission. answers holds the selected option
// index for each question, in question order.
//
// An unknown moduleID or a wrong answers length is returned as an error and
// leaves stored state untouched. A cooldown rejection is a normal Result
// with StatusCooldownActive, also without mutation. Graded outcomes (passed
// or failed) persist progress, any credit award, and an attempt record in
// one atomic commit.
func (e *Engine) SubmitAttempt(ctx context.Context, userID, moduleID string, answers []int, now time.Time) (Result, error) {
	mod, err := e.catalog.GetModule(moduleID)
	if err != nil {
		// Deploy-time mismatch between caller and catalog, not a user
		// failure.
		return Result{}, err
	}

	lock := e.keyLock(userID, moduleID)
	lock.Lock()
	defer lock.Unlock()

	progress, err := e.store.GetProgress(ctx, userID, moduleID)
	if err != nil {
		return Result{}, fmt.Errorf("load progress: %w", err)
	}
	account, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load account: %w", err)
	}
	if progress == nil {
		progress = &UserProgress{UserID: userID, ModuleID: moduleID}
	}
	if account == nil {
		account = &UserAccount{UserID: userID}
	}

	if !CanStartModule(progress, now) {
		e.log.Debug("attempt rejected: cooldown active",
			zap.String("user_id", userID),
			zap.String("module_id", moduleID),
			zap.Time("next_allowed_attempt_at", *progress.NextAllowedAttemptAt))
		return Result{
			Status:               StatusCooldownActive,
			RequiredScore:        mod.RequiredScore,
			NextAllowedAttemptAt: progress.NextAllowedAttemptAt,
			TotalCredits:         account.Credits,
		}, nil
	}

	if len(answers) != len(mod.Questions) {
		return Result{}, fmt.Errorf("%w: module %q expects %d answers, got %d",
			ErrAnswerCount, moduleID, len(mod.Questions), len(answers))
	}

	correct := 0
	feedback := make([]QuestionFeedback, len(mod.Questions))
	for i, q := range mod.Questions {
		ok := answers[i] == q.CorrectOptionIndex
		if ok {
			correct++
		}
		// Feedback always carries the learner's actual outcome, even on a
		// pass with required_score below 1.0.
		feedback[i] = QuestionFeedback{QuestionID: q.ID, Correct: ok, Explanation: q.Explanation}
	}
	score := float64(correct) / float64(len(mod.Questions))
	passedNow := score >= mod.RequiredScore

	progress.LastAttemptAt = &now
	creditsAwarded := 0
	if passedNow {
		first := !progress.Passed
		progress.Passed = true
		progress.NextAllowedAttemptAt = nil // a passed module has no cooldown
		if first {
			creditsAwarded = mod.CreditsOnPass
			account.Credits += creditsAwarded
		}
	} else {
		deadline := now.Add(time.Duration(mod.CooldownSeconds) * time.Second)
		progress.NextAllowedAttemptAt = &deadline
		// progress.Passed stays as-is: passing is monotonic.
	}

	attempt := &AttemptRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		ModuleID:       moduleID,
		Score:          score,
		CorrectCount:   correct,
		TotalQuestions: len(mod.Questions),
		Passed:         passedNow,
		CreditsAwarded: creditsAwarded,
		SubmittedAt:    now,
	}

	var accountUpdate *UserAccount
	if creditsAwarded > 0 {
		accountUpdate = account
	}
	if err := e.store.Commit(ctx, progress, accountUpdate, attempt); err != nil {
		return Result{}, fmt.Errorf("commit attempt: %w", err)
	}

	status := StatusFailed
	if passedNow {
		status = StatusPassed
	}
	e.log.Info("attempt graded",
		zap.String("user_id", userID),
		zap.String("module_id", moduleID),
		zap.String("status", string(status)),
		zap.Float64("score", score),
		zap.Int("credits_awarded", creditsAwarded))

	return Result{
		Status:               status,
		Score:                score,
		RequiredScore:        mod.RequiredScore,
		NextAllowedAttemptAt: progress.NextAllowedAttemptAt,
		CreditsAwarded:       creditsAwarded,
		TotalCredits:         account.Credits,
		Feedback:             feedback,
	}, nil
}

// GetUserProgress returns the progress record for a user/module pair, or a
// default "not started" record if none exists. The module id is checked
// against the catalog so typos surface as errors instead of empty records.
func (e *Engine) GetUserProgress(ctx context.Context, userID, moduleID string) (UserProgress, error) {
	if _, err := e.catalog.GetModule(moduleID); err != nil {
		return UserProgress{}, err
	}
	p, err := e.store.GetProgress(ctx, userID, moduleID)
	if err != nil {
		return UserProgress{}, fmt.Errorf("load progress: %w", err)
	}
	if p == nil {
		return UserProgress{UserID: userID, ModuleID: moduleID}, nil
	}
	return *p, nil
}

// GetUserCredits returns the user's credit balance, defaulting to 0.
func (e *Engine) GetUserCredits(ctx context.Context, userID string) (int, error) {
	a, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load account: %w", err)
	}
	if a == nil {
		return 0, nil
	}
	return a.Credits, nil
}

// ListAttempts returns a user's graded attempt history for a module, most
// recent first.
func (e *Engine) ListAttempts(ctx context.Context, userID, moduleID string) ([]AttemptRecord, error) {
	if _, err := e.catalog.GetModule(moduleID); err != nil {
		return nil, err
	}
	return e.store.ListAttempts(ctx, userID, moduleID)
}
