package quiz

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	progress map[string]UserProgress // userID\x00moduleID
	accounts map[string]UserAccount
	attempts map[string][]AttemptRecord // userID\x00moduleID, append order
}

// NewMemoryStore returns an in-process Store. Suitable for tests and
// single-process development; a real deployment needs a durable backend.
func NewMemoryStore() Store {
	return &memoryStore{
		progress: map[string]UserProgress{},
		accounts: map[string]UserAccount{},
		attempts: map[string][]AttemptRecord{},
	}
}

func progressKey(userID, moduleID string) string { return userID + "\x00" + moduleID }

func (m *memoryStore) GetProgress(_ context.Context, userID, moduleID string) (*UserProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey(userID, moduleID)]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *memoryStore) GetAccount(_ context.Context, userID string) (*UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (m *memoryStore) Commit(_ context.Context, progress *UserProgress, account *UserAccount, attempt *AttemptRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if progress != nil {
		m.progress[progressKey(progress.UserID, progress.ModuleID)] = *progress
	}
	if account != nil {
		m.accounts[account.UserID] = *account
	}
	if attempt != nil {
		k := progressKey(attempt.UserID, attempt.ModuleID)
		m.attempts[k] = append(m.attempts[k], *attempt)
	}
	return nil
}

func (m *memoryStore) ListAttempts(_ context.Context, userID, moduleID string) ([]AttemptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.attempts[progressKey(userID, moduleID)]
	out := make([]AttemptRecord, len(recs))
	for i, r := range recs {
		out[len(recs)-1-i] = r // most recent first
	}
	return out, nil
}
