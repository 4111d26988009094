package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/turnledger/turnledger/internal/ledger"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnledger.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_MissingRecordsAreEmpty(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	led, err := s.LoadLedger(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if led.UserID != "u1" || len(led.Grants) != 0 || led.Balance != 0 {
		t.Errorf("empty ledger = %+v", led)
	}

	quota, err := s.LoadQuota(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if quota.UsedToday != 0 || quota.ResetDate != "" {
		t.Errorf("empty quota = %+v", quota)
	}

	streak, err := s.LoadStreak(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if streak.ConsecutiveVotes != 0 || streak.LastVoteAt != nil {
		t.Errorf("empty streak = %+v", streak)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	led := ledger.NewUserLedger("u1")
	led.Grants = []ledger.CreditGrant{
		{
			ID:              "g1",
			AmountTotal:     3000,
			AmountRemaining: 2999,
			GrantedAt:       now,
			ExpiresAt:       now.Add(12 * time.Hour),
			Source:          ledger.SourceVoteReward,
		},
	}
	led.Balance = 2999
	if err := s.SaveLedger(ctx, led); err != nil {
		t.Fatal(err)
	}

	quota := ledger.NewFreeQuotaState("u1")
	quota.ResetDate = "2026-08-31"
	quota.UsedToday = 3
	if err := s.SaveQuota(ctx, quota); err != nil {
		t.Fatal(err)
	}

	streak := ledger.NewVoteStreak("u1")
	streak.ConsecutiveVotes = 7
	streak.LastVoteAt = &now
	if err := s.SaveStreak(ctx, streak); err != nil {
		t.Fatal(err)
	}

	// Reopen to prove the state survives a restart.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	gotLed, err := s2.LoadLedger(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if gotLed.Balance != 2999 || len(gotLed.Grants) != 1 {
		t.Fatalf("ledger after reopen = %+v", gotLed)
	}
	g := gotLed.Grants[0]
	if g.AmountRemaining != 2999 || !g.ExpiresAt.Equal(now.Add(12*time.Hour)) || g.Source != ledger.SourceVoteReward {
		t.Errorf("grant after reopen = %+v", g)
	}

	gotQuota, err := s2.LoadQuota(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if gotQuota.UsedToday != 3 || gotQuota.ResetDate != "2026-08-31" {
		t.Errorf("quota after reopen = %+v", gotQuota)
	}

	gotStreak, err := s2.LoadStreak(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if gotStreak.ConsecutiveVotes != 7 || gotStreak.LastVoteAt == nil || !gotStreak.LastVoteAt.Equal(now) {
		t.Errorf("streak after reopen = %+v", gotStreak)
	}
}

func TestStore_SaveOverwritesSnapshot(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	quota := ledger.NewFreeQuotaState("u1")
	quota.ResetDate = "2026-08-31"
	for i := 1; i <= 4; i++ {
		quota.UsedToday = i
		if err := s.SaveQuota(ctx, quota); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.LoadQuota(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedToday != 4 {
		t.Errorf("used_today = %d, want 4", got.UsedToday)
	}
}

func TestStore_CorruptPayloadFailsLoud(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()

	led := ledger.NewUserLedger("u1")
	led.Balance = 100
	if err := s.SaveLedger(ctx, led); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Corrupt the snapshot behind the store's back.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE user_ledgers SET payload = 'not json' WHERE user_id = 'u1'`); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if _, err := s2.LoadLedger(ctx, "u1"); !errors.Is(err, ledger.ErrStoreCorrupt) {
		t.Fatalf("got %v, want ErrStoreCorrupt", err)
	}

	// Other users must be unaffected.
	if _, err := s2.LoadLedger(ctx, "u2"); err != nil {
		t.Errorf("unaffected user: %v", err)
	}
}
