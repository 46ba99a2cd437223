package ledger

import (
	"context"
	"sync"
)

type inMemoryStore struct {
	mu       sync.RWMutex
	balances map[string]int64
	entries  []Entry
	nextID   int64
}

// NewInMemory creates a concurrency-safe in-memory ledger store. It mirrors
// the Postgres semantics, including guard evaluation under the same lock that
// serializes commits, and is intended for unit tests.
func NewInMemory() Store {
	return &inMemoryStore{
		balances: make(map[string]int64),
		nextID:   1,
	}
}

func (s *inMemoryStore) EnsureAccount(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.balances[userID]; !exists {
		s.balances[userID] = 0
	}
	return nil
}

func (s *inMemoryStore) Balance(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, exists := s.balances[userID]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (s *inMemoryStore) SumUnits(_ context.Context, userID, kind string, sinceMillis int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sumUnitsLocked(userID, kind, sinceMillis), nil
}

func (s *inMemoryStore) CountEntries(_ context.Context, userID, kind string, sinceMillis int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, e := range s.entries {
		if e.UserID == userID && e.Kind == kind && e.TimestampMillis > sinceMillis {
			count++
		}
	}
	return count, nil
}

func (s *inMemoryStore) CommitGrant(_ context.Context, grant Grant, guards ...CapGuard) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.balances[grant.UserID]; !exists {
		return 0, ErrTransactionFailed
	}

	for _, guard := range guards {
		sum := s.sumUnitsLocked(grant.UserID, grant.Kind, guard.SinceMillis)
		if sum+grant.Units > guard.MaxUnits {
			return 0, ErrCapExceeded
		}
	}

	entry := Entry{
		ID:              s.nextID,
		UserID:          grant.UserID,
		Kind:            grant.Kind,
		Amount:          grant.Amount,
		SubjectID:       grant.SubjectID,
		Units:           grant.Units,
		TimestampMillis: grant.TimestampMillis,
		Metadata:        grant.Metadata,
	}
	s.nextID++
	s.entries = append(s.entries, entry)
	s.balances[grant.UserID] += grant.Amount

	return s.balances[grant.UserID], nil
}

func (s *inMemoryStore) sumUnitsLocked(userID, kind string, sinceMillis int64) int64 {
	var sum int64
	for _, e := range s.entries {
		if e.UserID == userID && e.Kind == kind && e.TimestampMillis > sinceMillis {
			sum += e.Units
		}
	}
	return sum
}
