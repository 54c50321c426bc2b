package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"leadprep/models"
	"leadprep/utils"
)

// PushLog persists push runs and their failed rows to PostgreSQL.
type PushLog struct {
	db *sql.DB
}

// NewPushLog opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use PushLog.
func NewPushLog(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PushLog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pl := NewPushLogFromDB(db)
	if err := pl.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pl, nil
}

// NewPushLogFromDB wraps an already-open handle without migrating.
func NewPushLogFromDB(db *sql.DB) *PushLog {
	return &PushLog{db: db}
}

// Migrate creates the ledger tables if they do not exist.
func (pl *PushLog) Migrate(ctx context.Context) error {
	_, err := pl.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS push_runs (
			id          UUID         PRIMARY KEY,
			file        TEXT         NOT NULL,
			endpoint    TEXT         NOT NULL,
			attempted   INTEGER      NOT NULL DEFAULT 0,
			succeeded   INTEGER      NOT NULL DEFAULT 0,
			failed      INTEGER      NOT NULL DEFAULT 0,
			started_at  TIMESTAMPTZ  NOT NULL,
			finished_at TIMESTAMPTZ  NOT NULL
		);

		CREATE TABLE IF NOT EXISTS push_failures (
			id      SERIAL  PRIMARY KEY,
			run_id  UUID    NOT NULL REFERENCES push_runs(id) ON DELETE CASCADE,
			line    INTEGER NOT NULL,
			row     JSONB   NOT NULL,
			error   TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_push_runs_file       ON push_runs(file);
		CREATE INDEX IF NOT EXISTS idx_push_runs_started_at ON push_runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_push_failures_run    ON push_failures(run_id);
	`)
	return err
}

// Record stores one run and all of its failures in a single transaction.
func (pl *PushLog) Record(ctx context.Context, res *models.PushResult) error {
	tx, err := pl.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO push_runs (id, file, endpoint, attempted, succeeded, failed, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, res.RunID, res.Key, res.Endpoint, res.Attempted, res.Succeeded, res.Failed(),
		res.StartedAt, res.Finished); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(res.Failures); i += batchSize {
		end := i + batchSize
		if end > len(res.Failures) {
			end = len(res.Failures)
		}
		if err := insertFailureBatch(ctx, tx, res.RunID, res.Failures[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertFailureBatch(ctx context.Context, tx *sql.Tx, runID string, batch []models.PushFailure) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*4)

	for idx, f := range batch {
		row, err := json.Marshal(f.Row)
		if err != nil {
			return fmt.Errorf("postgres: encode row %d: %w", f.Line, err)
		}
		base := idx * 4
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		valueArgs = append(valueArgs, runID, f.Line, string(row), f.Error())
	}

	query := fmt.Sprintf(`
		INSERT INTO push_failures (run_id, line, row, error)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert failures: %w", err)
	}
	return nil
}

// PushRun is one row of the ledger as returned by Recent.
type PushRun struct {
	RunID     string    `json:"run_id"`
	File      string    `json:"file"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"pushed"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
	Finished  time.Time `json:"finished_at"`
}

// Recent returns the latest runs, newest first. An empty file matches every file.
func (pl *PushLog) Recent(ctx context.Context, file string, limit int) ([]PushRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := pl.db.QueryContext(ctx, `
		SELECT id, file, attempted, succeeded, failed, started_at, finished_at
		FROM push_runs
		WHERE $1 = '' OR file = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, file, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch runs: %w", err)
	}
	defer rows.Close()

	var runs []PushRun
	for rows.Next() {
		var r PushRun
		if err := rows.Scan(&r.RunID, &r.File, &r.Attempted, &r.Succeeded,
			&r.Failed, &r.StartedAt, &r.Finished); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (pl *PushLog) Close() error {
	return pl.db.Close()
}
