package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Via identifies which allowance type satisfied an authorization.
type Via string

const (
	ViaFree Via = "free"
	ViaPaid Via = "paid"
)

// Authorization is the successful result of AuthorizeAndDebit.
type Authorization struct {
	Via           Via   `json:"via"`
	RemainingFree int   `json:"remaining_free"`
	RemainingPaid int64 `json:"remaining_paid"`
}

// Status is a read-only snapshot of a user's allowances.
type Status struct {
	Balance       int64      `json:"balance"`
	RemainingFree int        `json:"remaining_free"`
	DailyLimit    int        `json:"daily_limit"`
	Streak        VoteStreak `json:"streak"`
}

// Service composes the free-quota tracker and the grant store to answer
// "may this user send a message now, and at what cost" and to perform the
// debit. Every entry point holds the per-user lock for the full
// read-modify-write-persist sequence.
type Service struct {
	quota  *FreeQuotaTracker
	grants *GrantStore
	store  Store
	locks  *KeyedMutex
}

// NewService wires the ledger service. The KeyedMutex must be the same
// instance shared with the reward engine so vote processing and
// authorization for one user never interleave.
func NewService(quota *FreeQuotaTracker, grants *GrantStore, store Store, locks *KeyedMutex) *Service {
	return &Service{quota: quota, grants: grants, store: store, locks: locks}
}

// AuthorizeAndDebit authorizes one message for the user, spending free quota
// before any earned credit. Fails with ErrQuotaExceeded when both tiers are
// exhausted; the caller must not proceed to generation in that case.
//
// There is no refund path: a debited message is spent once authorized,
// regardless of later failure of the generation call.
func (s *Service) AuthorizeAndDebit(ctx context.Context, userID string) (Authorization, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	ok, remainingFree, err := s.quota.TryConsumeFree(ctx, userID)
	if err != nil {
		return Authorization{}, err
	}
	if ok {
		balance, err := s.grants.Balance(ctx, userID)
		if err != nil {
			return Authorization{}, err
		}
		return Authorization{Via: ViaFree, RemainingFree: remainingFree, RemainingPaid: balance}, nil
	}

	remainingPaid, err := s.grants.Consume(ctx, userID, 1)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return Authorization{}, fmt.Errorf("%w: daily free messages used and no paid balance", ErrQuotaExceeded)
		}
		return Authorization{}, err
	}
	return Authorization{Via: ViaPaid, RemainingFree: 0, RemainingPaid: remainingPaid}, nil
}

// AddGrant credits the user outside the vote-reward flow (admin/manual).
func (s *Service) AddGrant(ctx context.Context, userID string, amount int64, ttl time.Duration, source GrantSource) (CreditGrant, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.grants.AddGrant(ctx, userID, amount, ttl, source)
}

// Status reports balance, remaining free messages and the current vote
// streak. Read-only apart from the date rollover and the implicit sweep.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	remainingFree, err := s.quota.RemainingFree(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	balance, err := s.grants.Balance(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	streak, err := s.store.LoadStreak(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Balance:       balance,
		RemainingFree: remainingFree,
		DailyLimit:    s.quota.DailyLimit(),
		Streak:        *streak,
	}, nil
}
