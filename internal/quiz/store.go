package quiz

import "context"

// Store persists progress, accounts and attempt history. Gets return
// (nil, nil) for absent records; the engine treats absence as the zero-value
// defaults (passed=false, credits=0).
//
// Commit must be all-or-nothing: either every non-nil argument is persisted
// or none is. The engine serializes submissions per (user, module) before
// calling Commit, so a Commit never races another Commit for the same key
// within one process; multi-node deployments rely on the backend making the
// commit itself transactional (SQL transaction, Redis MULTI/EXEC).
type Store interface {
	GetProgress(ctx context.Context, userID, moduleID string) (*UserProgress, error)
	GetAccount(ctx context.Context, userID string) (*UserAccount, error)
	Commit(ctx context.Context, progress *UserProgress, account *UserAccount, attempt *AttemptRecord) error

	// ListAttempts returns a user's graded attempts for a module, most
	// recent first.
	ListAttempts(ctx context.Context, userID, moduleID string) ([]AttemptRecord, error)
}
