package ledger

import (
	"context"
	"time"

	"github.com/turnledger/turnledger/internal/clock"
)

const dateLayout = "2006-01-02"

// FreeQuotaTracker meters the recurring daily free allowance. The counter
// resets the first time any operation observes a new calendar date in the
// reference timezone; the reset is persisted immediately so it cannot survive
// only in memory.
type FreeQuotaTracker struct {
	store Store
	clock clock.Clock
	limit int
	loc   *time.Location
}

// NewFreeQuotaTracker creates a tracker with the given daily limit evaluated
// in loc.
func NewFreeQuotaTracker(store Store, clk clock.Clock, dailyLimit int, loc *time.Location) *FreeQuotaTracker {
	return &FreeQuotaTracker{store: store, clock: clk, limit: dailyLimit, loc: loc}
}

// DailyLimit returns the configured free messages per day.
func (t *FreeQuotaTracker) DailyLimit() int { return t.limit }

// TryConsumeFree applies the date rollover, then consumes one free message if
// any remain today. Returns whether the message was authorized via the free
// tier and how many free messages remain afterwards.
func (t *FreeQuotaTracker) TryConsumeFree(ctx context.Context, userID string) (bool, int, error) {
	rec, err := t.rollover(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if rec.UsedToday >= t.limit {
		return false, 0, nil
	}

	rec.UsedToday++
	if err := t.store.SaveQuota(ctx, rec); err != nil {
		return false, 0, err
	}
	return true, t.limit - rec.UsedToday, nil
}

// RemainingFree returns how many free messages remain today, applying (and
// persisting) the date rollover first.
func (t *FreeQuotaTracker) RemainingFree(ctx context.Context, userID string) (int, error) {
	rec, err := t.rollover(ctx, userID)
	if err != nil {
		return 0, err
	}
	remaining := t.limit - rec.UsedToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// rollover loads the quota record and resets the counter when the calendar
// date in the reference timezone has advanced. Idempotent; persists the reset
// before returning so a crash cannot leave a half-reset state.
func (t *FreeQuotaTracker) rollover(ctx context.Context, userID string) (*FreeQuotaState, error) {
	rec, err := t.store.LoadQuota(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := t.clock.Now().In(t.loc).Format(dateLayout)
	if rec.ResetDate != today {
		rec.ResetDate = today
		rec.UsedToday = 0
		if err := t.store.SaveQuota(ctx, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
