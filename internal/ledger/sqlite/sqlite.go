// Package sqlite persists ledger snapshots in an embedded SQLite database.
//
// Each aggregate (ledger, quota, streak) lives in its own table as one row
// per user: a version column plus a JSON payload. Saves are single UPSERT
// statements, so with WAL enabled a crash leaves either the old or the new
// snapshot on disk, never a partial one.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/turnledger/turnledger/internal/ledger"
)

// Store implements ledger.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite ledger store at the supplied path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS user_ledgers (
	user_id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS free_quotas (
	user_id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vote_streaks (
	user_id TEXT PRIMARY KEY,
	version INTEGER NOT NULL,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases underlying resources.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) load(ctx context.Context, table, userID string, out any) error {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE user_id = ?`, table)
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s user=%s: %w", table, userID, err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode %s user=%s: %v", ledger.ErrStoreCorrupt, table, userID, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, table, userID string, version int, rec any) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s user=%s: %w", table, userID, err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (user_id, version, payload, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(user_id) DO UPDATE SET
	version = excluded.version,
	payload = excluded.payload,
	updated_at = CURRENT_TIMESTAMP`, table)
	if _, err := s.db.ExecContext(ctx, query, userID, version, payload); err != nil {
		return fmt.Errorf("save %s user=%s: %w", table, userID, err)
	}
	return nil
}

func (s *Store) LoadLedger(ctx context.Context, userID string) (*ledger.UserLedger, error) {
	rec := ledger.NewUserLedger(userID)
	if err := s.load(ctx, "user_ledgers", userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) SaveLedger(ctx context.Context, rec *ledger.UserLedger) error {
	return s.save(ctx, "user_ledgers", rec.UserID, rec.SchemaVersion, rec)
}

func (s *Store) LoadQuota(ctx context.Context, userID string) (*ledger.FreeQuotaState, error) {
	rec := ledger.NewFreeQuotaState(userID)
	if err := s.load(ctx, "free_quotas", userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) SaveQuota(ctx context.Context, rec *ledger.FreeQuotaState) error {
	return s.save(ctx, "free_quotas", rec.UserID, rec.SchemaVersion, rec)
}

func (s *Store) LoadStreak(ctx context.Context, userID string) (*ledger.VoteStreak, error) {
	rec := ledger.NewVoteStreak(userID)
	if err := s.load(ctx, "vote_streaks", userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) SaveStreak(ctx context.Context, rec *ledger.VoteStreak) error {
	return s.save(ctx, "vote_streaks", rec.UserID, rec.SchemaVersion, rec)
}

var _ ledger.Store = (*Store)(nil)
