// Package history records run outcomes in a local SQLite database so past
// runs can be listed and compared from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reqfile/reqfile/packages/core/runner"
)

// DefaultPath is the history database location relative to the working
// directory, overridable through the project config.
const DefaultPath = ".reqfile/history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	file        TEXT NOT NULL,
	environment TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMP NOT NULL,
	duration_ms REAL NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	method      TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	status_code INTEGER NOT NULL DEFAULT 0,
	duration_ms REAL NOT NULL,
	passed      INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_run_requests_run ON run_requests(run_id);
`

// Store is a handle on the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Run is one recorded run.
type Run struct {
	ID          int64
	File        string
	Environment string
	StartedAt   time.Time
	DurationMs  float64
	Passed      int
	Failed      int
	Skipped     int
}

// RequestOutcome is one request within a recorded run.
type RequestOutcome struct {
	Name       string
	Method     string
	URL        string
	StatusCode int
	DurationMs float64
	Passed     bool
	Error      string
}

// RecordRun stores a run and its per-request outcomes, returning the run id.
func (s *Store) RecordRun(ctx context.Context, result *runner.RunResult, environment string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (file, environment, started_at, duration_ms, passed, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.File, environment, time.Now().Add(-result.Duration),
		float64(result.Duration)/float64(time.Millisecond),
		result.Passed, result.Failed, result.Skipped)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}

	for _, r := range result.Results {
		if r.Skipped {
			continue
		}
		statusCode := 0
		if r.Response != nil {
			statusCode = r.Response.StatusCode
		}
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_requests (run_id, name, method, url, status_code, duration_ms, passed, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Name, r.Method, r.URL, statusCode,
			float64(r.Duration)/float64(time.Millisecond), r.Passed, errText); err != nil {
			return 0, fmt.Errorf("recording request %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return runID, nil
}

// RecentRuns lists the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file, environment, started_at, duration_ms, passed, failed, skipped
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.File, &run.Environment, &run.StartedAt,
			&run.DurationMs, &run.Passed, &run.Failed, &run.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunRequests lists the request outcomes of one recorded run, in execution
// order.
func (s *Store) RunRequests(ctx context.Context, runID int64) ([]*RequestOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, method, url, status_code, duration_ms, passed, error
		 FROM run_requests WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing run requests: %w", err)
	}
	defer rows.Close()

	var outcomes []*RequestOutcome
	for rows.Next() {
		o := &RequestOutcome{}
		if err := rows.Scan(&o.Name, &o.Method, &o.URL, &o.StatusCode,
			&o.DurationMs, &o.Passed, &o.Error); err != nil {
			return nil, fmt.Errorf("scanning request outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
