package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/turnledger/turnledger/internal/clock"
)

// GrantStore owns the per-user grant collections. All mutations flow through
// it and are durably persisted before the call returns.
//
// GrantStore performs no locking of its own; callers (Service, reward.Engine)
// hold the per-user KeyedMutex around every call.
type GrantStore struct {
	store Store
	clock clock.Clock
}

// NewGrantStore creates a GrantStore on top of the given persistence adapter.
func NewGrantStore(store Store, clk clock.Clock) *GrantStore {
	return &GrantStore{store: store, clock: clk}
}

// AddGrant creates a new grant expiring ttl from now and persists it.
// Returns ErrInvalidGrant when amount or ttl is not positive.
func (s *GrantStore) AddGrant(ctx context.Context, userID string, amount int64, ttl time.Duration, source GrantSource) (CreditGrant, error) {
	if amount <= 0 {
		return CreditGrant{}, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidGrant, amount)
	}
	if ttl <= 0 {
		return CreditGrant{}, fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidGrant, ttl)
	}

	rec, err := s.store.LoadLedger(ctx, userID)
	if err != nil {
		return CreditGrant{}, err
	}

	now := s.clock.Now()
	grant := CreditGrant{
		ID:              uuid.NewString(),
		AmountTotal:     amount,
		AmountRemaining: amount,
		GrantedAt:       now,
		ExpiresAt:       now.Add(ttl),
		Source:          source,
	}
	rec.Grants = append(pruneInactive(rec.Grants, now), grant)
	rec.Balance = activeBalance(rec.Grants, now)

	if err := s.store.SaveLedger(ctx, rec); err != nil {
		return CreditGrant{}, err
	}
	return grant, nil
}

// Balance returns the sum of remaining amounts over active grants. Expired and
// exhausted grants are swept first so the value never double-counts them.
func (s *GrantStore) Balance(ctx context.Context, userID string) (int64, error) {
	rec, err := s.store.LoadLedger(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	active := pruneInactive(rec.Grants, now)
	balance := activeBalance(active, now)
	if len(active) != len(rec.Grants) || rec.Balance != balance {
		rec.Grants = active
		rec.Balance = balance
		if err := s.store.SaveLedger(ctx, rec); err != nil {
			return 0, err
		}
	}
	return balance, nil
}

// Consume debits amount from the user's active grants, draining the
// soonest-expiring grant first. The debit is all-or-nothing: when the active
// balance is short the call fails with ErrInsufficientBalance and no grant is
// modified. Returns the balance remaining after the debit.
func (s *GrantStore) Consume(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: consume amount must be positive, got %d", ErrInvalidGrant, amount)
	}

	rec, err := s.store.LoadLedger(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	active := pruneInactive(rec.Grants, now)
	sortByExpiry(active)

	balance := activeBalance(active, now)
	if balance < amount {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, balance, amount)
	}

	left := amount
	for i := range active {
		if left == 0 {
			break
		}
		g := &active[i]
		take := g.AmountRemaining
		if take > left {
			take = left
		}
		g.AmountRemaining -= take
		left -= take
	}

	rec.Grants = active
	rec.Balance = balance - amount
	if err := s.store.SaveLedger(ctx, rec); err != nil {
		return 0, err
	}
	return rec.Balance, nil
}

// Sweep removes inactive grants and reports how many were dropped. Persists
// only when at least one grant was removed.
func (s *GrantStore) Sweep(ctx context.Context, userID string) (int, error) {
	rec, err := s.store.LoadLedger(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	active := pruneInactive(rec.Grants, now)
	removed := len(rec.Grants) - len(active)
	if removed == 0 {
		return 0, nil
	}

	rec.Grants = active
	rec.Balance = activeBalance(active, now)
	if err := s.store.SaveLedger(ctx, rec); err != nil {
		return 0, err
	}
	return removed, nil
}

func pruneInactive(grants []CreditGrant, now time.Time) []CreditGrant {
	active := make([]CreditGrant, 0, len(grants))
	for _, g := range grants {
		if g.Active(now) {
			active = append(active, g)
		}
	}
	return active
}

func activeBalance(grants []CreditGrant, now time.Time) int64 {
	var total int64
	for _, g := range grants {
		if g.Active(now) {
			total += g.AmountRemaining
		}
	}
	return total
}

// sortByExpiry orders grants ascending by ExpiresAt so the soonest-expiring
// grant is drained first, minimising credit wasted to expiry. Ties break by
// GrantedAt then ID so the order is deterministic for a given store state.
func sortByExpiry(grants []CreditGrant) {
	sort.SliceStable(grants, func(i, j int) bool {
		gi, gj := grants[i], grants[j]
		if !gi.ExpiresAt.Equal(gj.ExpiresAt) {
			return gi.ExpiresAt.Before(gj.ExpiresAt)
		}
		if !gi.GrantedAt.Equal(gj.GrantedAt) {
			return gi.GrantedAt.Before(gj.GrantedAt)
		}
		return gi.ID < gj.ID
	})
}
