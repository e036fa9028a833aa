package out

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"
)

// Fixed width so the text column sorts chronologically.
const actionTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteActionLog struct {
	db *sql.DB
}

func NewSQLiteActionLog(ctx context.Context, db *sql.DB) (toolsout.ActionLog, error) {
	l := &SQLiteActionLog{db: db}
	if err := l.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQLiteActionLog) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tool_actions (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  target TEXT NOT NULL,
  success INTEGER NOT NULL,
  message TEXT NOT NULL,
  at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tool_actions_at ON tool_actions(at);
`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tool_actions table: %w", err)
	}
	return nil
}

func (l *SQLiteActionLog) Append(ctx context.Context, record domain.ActionRecord) error {
	success := 0
	if record.Success {
		success = 1
	}
	const stmt = `INSERT INTO tool_actions (id, kind, target, success, message, at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, stmt, record.ID, string(record.Kind), record.Target, success, record.Message, record.At.UTC().Format(actionTimeLayout)); err != nil {
		return fmt.Errorf("append action %s: %w", record.ID, err)
	}
	return nil
}

// List returns the newest records first.
func (l *SQLiteActionLog) List(ctx context.Context, limit int) ([]domain.ActionRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, kind, target, success, message, at FROM tool_actions ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	out := []domain.ActionRecord{}
	for rows.Next() {
		var (
			record  domain.ActionRecord
			kind    string
			success int
			at      string
		)
		if err := rows.Scan(&record.ID, &kind, &record.Target, &success, &record.Message, &at); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		record.Kind = domain.ActionKind(kind)
		record.Success = success == 1
		record.At, err = time.Parse(actionTimeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse action time: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
