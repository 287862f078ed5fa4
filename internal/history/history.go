// Package history keeps a local SQLite ledger of pipeline launches.
// Recording is best-effort: the launchers log and continue when the
// ledger is unavailable, so the core launch flow never depends on it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded engine invocation.
type Run struct {
	ID         string
	Pipeline   string
	ConfigFile string
	JobFile    string
	OutDir     string
	ExitCode   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store persists runs in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// DefaultPath returns the per-user ledger location, ~/.chiron/chiron.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chiron", "chiron.db"), nil
}

// Open opens (or creates) the ledger at dbPath. Use ":memory:" for an
// in-memory database (useful in tests).
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "history"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the runs table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			pipeline    TEXT NOT NULL,
			config_file TEXT NOT NULL,
			job_file    TEXT NOT NULL,
			out_dir     TEXT NOT NULL,
			exit_code   INTEGER NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`)
	return err
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, run *Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline, config_file, job_file, out_dir, exit_code, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Pipeline, run.ConfigFile, run.JobFile, run.OutDir, run.ExitCode,
		run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns up to limit runs for the given pipeline, newest first.
// An empty pipeline matches all pipelines.
func (s *Store) Recent(ctx context.Context, pipeline string, limit int) ([]*Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "pipeline", pipeline, "limit", limit)

	query := `SELECT id, pipeline, config_file, job_file, out_dir, exit_code, started_at, finished_at
		 FROM runs`
	args := []any{}
	if pipeline != "" {
		query += " WHERE pipeline = ?"
		args = append(args, pipeline)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &run.Pipeline, &run.ConfigFile, &run.JobFile,
			&run.OutDir, &run.ExitCode, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
