// Package reward turns normalized vote events into time-limited credit
// grants. Repeated notifications for the same vote occurrence are suppressed
// inside the per-user locked region, so concurrent duplicate deliveries yield
// exactly one grant per vote window.
package reward

import (
	"context"
	"log"
	"time"

	"github.com/turnledger/turnledger/internal/clock"
	"github.com/turnledger/turnledger/internal/ledger"
)

// Config holds reward sizing and cadence settings.
type Config struct {
	// BaseAmount is the token grant for one vote on a weekday.
	BaseAmount int64
	// Expiry is how long a vote grant stays consumable.
	Expiry time.Duration
	// WeekendMultiplier scales BaseAmount for Saturday/Sunday votes.
	WeekendMultiplier int64
	// VoteWindow is the platform's voting cadence. A vote arriving while the
	// user's last processed vote is still inside the window is treated as a
	// duplicate notification and not rewarded again.
	VoteWindow time.Duration
	// Location is the reference timezone for the weekend check.
	Location *time.Location
}

// Engine applies vote rewards: weekend doubling, streak tracking, grant
// creation.
type Engine struct {
	grants *ledger.GrantStore
	store  ledger.Store
	clock  clock.Clock
	locks  *ledger.KeyedMutex
	cfg    Config
	logger *log.Logger
}

// NewEngine wires a reward engine. locks must be the KeyedMutex shared with
// the ledger service.
func NewEngine(grants *ledger.GrantStore, store ledger.Store, clk clock.Clock, locks *ledger.KeyedMutex, cfg Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.WeekendMultiplier <= 0 {
		cfg.WeekendMultiplier = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{grants: grants, store: store, clock: clk, locks: locks, cfg: cfg, logger: logger}
}

// VoteResult is the outcome of ProcessVote. When the vote was a duplicate
// inside the window, Rewarded is false and Grant is zero; Streak always
// carries the user's current count.
type VoteResult struct {
	Rewarded bool
	Grant    ledger.CreditGrant
	Streak   int
}

// ProcessVote records one vote for the user and credits the reward grant.
// The duplicate check happens after the per-user lock is held, so two
// concurrent deliveries of the same vote cannot both pass it. weekendOverride,
// when present, wins over the calendar check (the vote platform reports its
// own weekend flag).
func (e *Engine) ProcessVote(ctx context.Context, userID string, votedAt time.Time, weekendOverride *bool) (VoteResult, error) {
	unlock := e.locks.Lock(userID)
	defer unlock()

	streak, err := e.store.LoadStreak(ctx, userID)
	if err != nil {
		return VoteResult{}, err
	}
	if streak.LastVoteAt != nil && e.clock.Now().Sub(*streak.LastVoteAt) < e.cfg.VoteWindow {
		e.logger.Printf("[INFO] vote ignored user=%s: already rewarded in current window", userID)
		return VoteResult{Rewarded: false, Streak: streak.ConsecutiveVotes}, nil
	}

	weekend := isWeekend(votedAt.In(e.cfg.Location))
	if weekendOverride != nil {
		weekend = *weekendOverride
	}

	amount := e.cfg.BaseAmount
	if weekend {
		amount *= e.cfg.WeekendMultiplier
	}

	streak.ConsecutiveVotes++
	t := votedAt
	streak.LastVoteAt = &t
	if err := e.store.SaveStreak(ctx, streak); err != nil {
		return VoteResult{}, err
	}

	grant, err := e.grants.AddGrant(ctx, userID, amount, e.cfg.Expiry, ledger.SourceVoteReward)
	if err != nil {
		return VoteResult{}, err
	}

	e.logger.Printf("[INFO] vote reward user=%s amount=%d weekend=%v streak=%d expires=%s",
		userID, amount, weekend, streak.ConsecutiveVotes, grant.ExpiresAt.Format(time.RFC3339))
	return VoteResult{Rewarded: true, Grant: grant, Streak: streak.ConsecutiveVotes}, nil
}

// Now exposes the engine's clock so the webhook receiver can stamp
// normalized events consistently with expiry evaluation.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// Streak returns the user's current vote streak.
func (e *Engine) Streak(ctx context.Context, userID string) (ledger.VoteStreak, error) {
	streak, err := e.store.LoadStreak(ctx, userID)
	if err != nil {
		return ledger.VoteStreak{}, err
	}
	return *streak, nil
}

func isWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
