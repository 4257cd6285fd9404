package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/torsel/internal/model"
)

// RunDB provides SQLite-based storage for run reports.
//
// Design decision: one database file for all runs rather than a file per
// run. Cross-run queries ("how often does instance 3 abandon actions")
// are the whole point of keeping history.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "torsel.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rwc allows creation; mode=rw requires the file to exist.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Already failing
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// createTables creates the schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per pool run.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		total_instances INTEGER NOT NULL,
		max_workers INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		abandoned INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per action outcome within a run.
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		action_index INTEGER NOT NULL,
		instance_index INTEGER NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		rotations INTEGER NOT NULL,
		last_error TEXT,
		elapsed_ms INTEGER NOT NULL,
		UNIQUE(run_id, action_index)
	);

	CREATE INDEX IF NOT EXISTS idx_actions_run ON actions(run_id);
	CREATE INDEX IF NOT EXISTS idx_actions_status ON actions(status);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun persists a run report and all its action results in one
// transaction. Returns the run's row ID.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, elapsed_ms, total_instances, max_workers, succeeded, abandoned, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.StartedAt.UTC(),
		report.Elapsed.Milliseconds(),
		report.TotalInstances,
		report.MaxWorkers,
		report.Succeeded(),
		report.Abandoned(),
		report.Skipped(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, action := range report.Results() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO actions (run_id, action_index, instance_index, status, attempts, rotations, last_error, elapsed_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			action.ActionIndex,
			action.InstanceIndex,
			action.Status.String(),
			action.Attempts,
			action.Rotations,
			action.LastError,
			action.Elapsed.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("failed to insert action %d: %w", action.ActionIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunSummary is one row from the runs table.
type RunSummary struct {
	ID             int64
	StartedAt      time.Time
	Elapsed        time.Duration
	TotalInstances int
	MaxWorkers     int
	Succeeded      int
	Abandoned      int
	Skipped        int
}

// RecentRuns returns up to limit runs, newest first.
func (rdb *RunDB) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT id, started_at, elapsed_ms, total_instances, max_workers, succeeded, abandoned, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var elapsedMS int64
		if err := rows.Scan(&s.ID, &s.StartedAt, &elapsedMS, &s.TotalInstances,
			&s.MaxWorkers, &s.Succeeded, &s.Abandoned, &s.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

// ActionsForRun returns the recorded outcomes of one run, ordered by
// action index.
func (rdb *RunDB) ActionsForRun(ctx context.Context, runID int64) ([]model.ActionResult, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT action_index, instance_index, status, attempts, rotations, last_error, elapsed_ms
		 FROM actions WHERE run_id = ? ORDER BY action_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query

	var out []model.ActionResult
	for rows.Next() {
		var res model.ActionResult
		var status string
		var elapsedMS int64
		if err := rows.Scan(&res.ActionIndex, &res.InstanceIndex, &status,
			&res.Attempts, &res.Rotations, &res.LastError, &elapsedMS); err != nil {
			return nil, fmt.Errorf("failed to scan action row: %w", err)
		}
		res.Status = statusFromString(status)
		res.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, res)
	}
	return out, rows.Err()
}

// statusFromString maps a stored status name back to its enum value.
func statusFromString(s string) model.ActionStatus {
	switch s {
	case "succeeded":
		return model.StatusSucceeded
	case "abandoned":
		return model.StatusAbandoned
	case "skipped":
		return model.StatusSkipped
	default:
		return model.StatusAbandoned
	}
}
