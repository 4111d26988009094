package ledger

import "time"

// SchemaVersion is embedded in every persisted snapshot so older daemons can
// refuse payloads written by a newer incompatible release.
const SchemaVersion = 1

// GrantSource records where a credit grant came from. Informational only; it
// never affects consumption order.
type GrantSource string

const (
	SourceVoteReward GrantSource = "vote_reward"
	SourceManual     GrantSource = "manual"
	SourceOther      GrantSource = "other"
)

// CreditGrant is a single time-limited allotment of paid usage credit.
type CreditGrant struct {
	ID              string      `json:"id"`
	AmountTotal     int64       `json:"amount_total"`
	AmountRemaining int64       `json:"amount_remaining"`
	GrantedAt       time.Time   `json:"granted_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
	Source          GrantSource `json:"source"`
}

// Active reports whether the grant may still be consumed at the given instant.
func (g CreditGrant) Active(now time.Time) bool {
	return g.AmountRemaining > 0 && g.ExpiresAt.After(now)
}

// UserLedger is the persisted per-user collection of credit grants.
// Balance caches the sum of AmountRemaining over active grants and is
// recomputed on every mutation.
type UserLedger struct {
	UserID        string        `json:"user_id"`
	SchemaVersion int           `json:"schema_version"`
	Grants        []CreditGrant `json:"grants"`
	Balance       int64         `json:"balance"`
}

// FreeQuotaState tracks consumption of the recurring daily free allowance.
// ResetDate is a calendar date (YYYY-MM-DD) in the configured reference
// timezone.
type FreeQuotaState struct {
	UserID        string `json:"user_id"`
	SchemaVersion int    `json:"schema_version"`
	ResetDate     string `json:"reset_date"`
	UsedToday     int    `json:"used_today"`
}

// VoteStreak counts processed vote events for a user. The streak is
// monotonically increasing; no reset rule is defined for it.
type VoteStreak struct {
	UserID           string     `json:"user_id"`
	SchemaVersion    int        `json:"schema_version"`
	ConsecutiveVotes int        `json:"consecutive_votes"`
	LastVoteAt       *time.Time `json:"last_vote_at,omitempty"`
}
