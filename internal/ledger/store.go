package ledger

import "context"

// Store defines persistence behaviour for the three per-user aggregates.
//
// Load methods return an empty, initialised record when nothing has been
// persisted for the user yet; a missing record is never an error. Unparseable
// durable data yields an error wrapping ErrStoreCorrupt so the affected
// operation fails loudly instead of fabricating a zero balance.
//
// Save must be atomic with respect to process crash: the durable record is
// either the previous snapshot or the new one, never a partial write.
type Store interface {
	LoadLedger(ctx context.Context, userID string) (*UserLedger, error)
	SaveLedger(ctx context.Context, rec *UserLedger) error

	LoadQuota(ctx context.Context, userID string) (*FreeQuotaState, error)
	SaveQuota(ctx context.Context, rec *FreeQuotaState) error

	LoadStreak(ctx context.Context, userID string) (*VoteStreak, error)
	SaveStreak(ctx context.Context, rec *VoteStreak) error

	Close() error
}

// NewUserLedger returns an empty ledger record for the user.
func NewUserLedger(userID string) *UserLedger {
	return &UserLedger{UserID: userID, SchemaVersion: SchemaVersion}
}

// NewFreeQuotaState returns an empty quota record for the user.
func NewFreeQuotaState(userID string) *FreeQuotaState {
	return &FreeQuotaState{UserID: userID, SchemaVersion: SchemaVersion}
}

// NewVoteStreak returns an empty streak record for the user.
func NewVoteStreak(userID string) *VoteStreak {
	return &VoteStreak{UserID: userID, SchemaVersion: SchemaVersion}
}
