package entitycache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

// SQLiteSnapshots keeps one row per kind. The caller owns db.
type SQLiteSnapshots struct {
	db *sql.DB
}

func NewSQLiteSnapshots(ctx context.Context, db *sql.DB) (*SQLiteSnapshots, error) {
	s := &SQLiteSnapshots{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSnapshots) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS entity_snapshots (
  kind TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  fetched_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create entity_snapshots table: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshots) Load(ctx context.Context, kind Kind) ([]byte, time.Time, bool, error) {
	var payload, fetchedAt string
	err := s.db.QueryRowContext(ctx, `SELECT payload, fetched_at FROM entity_snapshots WHERE kind = ?`, string(kind)).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("load snapshot %s: %w", kind, err)
	}
	at, err := time.Parse(timeLayout, fetchedAt)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("parse snapshot time %s: %w", kind, err)
	}
	return []byte(payload), at, true, nil
}

func (s *SQLiteSnapshots) Save(ctx context.Context, kind Kind, payload []byte, fetchedAt time.Time) error {
	const stmt = `
INSERT INTO entity_snapshots (kind, payload, fetched_at)
VALUES (?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET
  payload=excluded.payload,
  fetched_at=excluded.fetched_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, string(kind), string(payload), fetchedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("save snapshot %s: %w", kind, err)
	}
	return nil
}

func (s *SQLiteSnapshots) Delete(ctx context.Context, kind Kind) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entity_snapshots WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", kind, err)
	}
	return nil
}
