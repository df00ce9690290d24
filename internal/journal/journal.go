// Package journal keeps a durable per-URL audit trail of scan
// completions in SQLite. The CSV snapshot retains only the latest
// attempt per URL; the journal keeps every attempt across runs.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Event is one completed validation attempt.
type Event struct {
	RunID    string
	URL      string
	Mode     string
	IsValid  bool
	Method   string
	Error    string
	Duration time.Duration
}

// Journal appends scan events to a SQLite database.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the journal database at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			url TEXT NOT NULL,
			mode TEXT NOT NULL,
			is_valid INTEGER NOT NULL,
			method TEXT,
			error TEXT,
			duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scan_events_run ON scan_events(run_id);
		CREATE INDEX IF NOT EXISTS idx_scan_events_url ON scan_events(url);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	logger.Info("scan journal enabled", "path", path)
	return &Journal{db: db, logger: logger}, nil
}

// Record appends one event. Journal failures are reported but must not
// abort a scan; callers log and continue.
func (j *Journal) Record(ctx context.Context, ev Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO scan_events (id, run_id, url, mode, is_valid, method, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		ev.RunID,
		ev.URL,
		ev.Mode,
		boolToInt(ev.IsValid),
		ev.Method,
		ev.Error,
		ev.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record scan event: %w", err)
	}
	return nil
}

// RunSummary returns how many events a run recorded, split by validity.
func (j *Journal) RunSummary(ctx context.Context, runID string) (valid, invalid int, err error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(is_valid), 0),
			COALESCE(SUM(1 - is_valid), 0)
		FROM scan_events WHERE run_id = ?`, runID)
	if err := row.Scan(&valid, &invalid); err != nil {
		return 0, 0, fmt.Errorf("summarize run: %w", err)
	}
	return valid, invalid, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
