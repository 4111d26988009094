package ledger

import (
	"context"
	"sync"
)

// MemoryStore implements Store with process-local maps. Suitable for tests
// and ephemeral runs; state does not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string]*UserLedger
	quotas  map[string]*FreeQuotaState
	streaks map[string]*VoteStreak
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledgers: make(map[string]*UserLedger),
		quotas:  make(map[string]*FreeQuotaState),
		streaks: make(map[string]*VoteStreak),
	}
}

func (s *MemoryStore) LoadLedger(_ context.Context, userID string) (*UserLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.ledgers[userID]
	if !ok {
		return NewUserLedger(userID), nil
	}
	return copyLedger(rec), nil
}

func (s *MemoryStore) SaveLedger(_ context.Context, rec *UserLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgers[rec.UserID] = copyLedger(rec)
	return nil
}

func (s *MemoryStore) LoadQuota(_ context.Context, userID string) (*FreeQuotaState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.quotas[userID]
	if !ok {
		return NewFreeQuotaState(userID), nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) SaveQuota(_ context.Context, rec *FreeQuotaState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.quotas[rec.UserID] = &cp
	return nil
}

func (s *MemoryStore) LoadStreak(_ context.Context, userID string) (*VoteStreak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.streaks[userID]
	if !ok {
		return NewVoteStreak(userID), nil
	}
	return copyStreak(rec), nil
}

func (s *MemoryStore) SaveStreak(_ context.Context, rec *VoteStreak) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaks[rec.UserID] = copyStreak(rec)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func copyLedger(rec *UserLedger) *UserLedger {
	cp := *rec
	cp.Grants = make([]CreditGrant, len(rec.Grants))
	copy(cp.Grants, rec.Grants)
	return &cp
}

func copyStreak(rec *VoteStreak) *VoteStreak {
	cp := *rec
	if rec.LastVoteAt != nil {
		t := *rec.LastVoteAt
		cp.LastVoteAt = &t
	}
	return &cp
}

var _ Store = (*MemoryStore)(nil)
