package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore persists progress, accounts and attempt history in SQLite or
// Postgres over database/sql. Commit wraps its writes in one transaction.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Timestamps are stored as unix milliseconds so the exact submitted instant
// round-trips through both drivers.
func millis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func (s *SQLStore) GetProgress(ctx context.Context, userID, moduleID string) (*UserProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT passed, last_attempt_at, next_allowed_attempt_at
		 FROM user_progress WHERE user_id=$1 AND module_id=$2`, userID, moduleID)
	p := UserProgress{UserID: userID, ModuleID: moduleID}
	var last, next sql.NullInt64
	if err := row.Scan(&p.Passed, &last, &next); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.LastAttemptAt = fromMillis(last)
	p.NextAllowedAttemptAt = fromMillis(next)
	return &p, nil
}

func (s *SQLStore) GetAccount(ctx context.Context, userID string) (*UserAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT credits FROM user_accounts WHERE user_id=$1`, userID)
	a := UserAccount{UserID: userID}
	if err := row.Scan(&a.Credits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *SQLStore) Commit(ctx context.Context, progress *UserProgress, account *UserAccount, attempt *AttemptRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if progress != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_progress (user_id, module_id, passed, last_attempt_at, next_allowed_attempt_at)
			 VALUES ($1,$2,$3,$4,$5)
			 ON CONFLICT (user_id, module_id) DO UPDATE SET
			   passed=EXCLUDED.passed,
			   last_attempt_at=EXCLUDED.last_attempt_at,
			   next_allowed_attempt_at=EXCLUDED.next_allowed_attempt_at`,
			progress.UserID, progress.ModuleID, progress.Passed,
			millis(progress.LastAttemptAt), millis(progress.NextAllowedAttemptAt)); err != nil {
			return fmt.Errorf("upsert progress: %w", err)
		}
	}
	if account != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_accounts (user_id, credits) VALUES ($1,$2)
			 ON CONFLICT (user_id) DO UPDATE SET credits=EXCLUDED.credits`,
			account.UserID, account.Credits); err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}
	}
	if attempt != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_attempts (id, user_id, module_id, score, correct_count, total_questions, passed, credits_awarded, submitted_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			attempt.ID, attempt.UserID, attempt.ModuleID, attempt.Score,
			attempt.CorrectCount, attempt.TotalQuestions, attempt.Passed,
			attempt.CreditsAwarded, attempt.SubmittedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID, moduleID string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, score, correct_count, total_questions, passed, credits_awarded, submitted_at
		 FROM quiz_attempts WHERE user_id=$1 AND module_id=$2
		 ORDER BY submitted_at DESC`, userID, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		a := AttemptRecord{UserID: userID, ModuleID: moduleID}
		var submitted int64
		if err := rows.Scan(&a.ID, &a.Score, &a.CorrectCount, &a.TotalQuestions,
			&a.Passed, &a.CreditsAwarded, &submitted); err != nil {
			return nil, err
		}
		a.SubmittedAt = time.UnixMilli(submitted)
		out = append(out, a)
	}
	return out, rows.Err()
}
