// Package runlog keeps a SQLite history of batch runs and their per-movie
// outcomes so operators can audit what each run changed.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nrw/internal/scores"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Run is one row of the runs table.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	CatalogPath string
	Resolved    int
	Skipped     int
	Unresolved  int
	Failed      int
	CacheHits   int
	Changed     int
	DryRun      bool
	Error       string
}

// OutcomeRow is one per-movie line of a run.
type OutcomeRow struct {
	MovieID       string
	Title         string
	Status        string
	Method        string
	CriticScore   *int
	AudienceScore *int
	Reason        string
}

// RowFromOutcome flattens a resolver outcome.
func RowFromOutcome(o scores.Outcome) OutcomeRow {
	row := OutcomeRow{
		MovieID: o.MovieID,
		Title:   o.Title,
		Status:  string(o.Status),
		Reason:  o.Reason,
	}
	if o.Status == scores.StatusResolved {
		row.Method = o.Result.Method
		row.CriticScore = o.Result.CriticScore
		row.AudienceScore = o.Result.AudienceScore
	}
	return row
}

// Store wraps the history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create runlog directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordRun stores a run and its outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, rows []OutcomeRow) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `INSERT INTO runs
			(id, started_at, finished_at, catalog_path, resolved, skipped, unresolved, failed, cache_hits, changed, dry_run, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.CatalogPath,
			run.Resolved, run.Skipped, run.Unresolved, run.Failed, run.CacheHits, run.Changed,
			boolToInt(run.DryRun), nullableString(run.Error))
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes
			(run_id, seq, movie_id, title, status, method, critic_score, audience_score, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare outcome insert: %w", err)
		}
		defer stmt.Close()
		for i, row := range rows {
			if _, err := stmt.ExecContext(ctx, run.ID, i, row.MovieID, row.Title, row.Status,
				nullableString(row.Method), nullableInt(row.CriticScore), nullableInt(row.AudienceScore),
				nullableString(row.Reason)); err != nil {
				return fmt.Errorf("insert outcome %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, catalog_path, resolved, skipped, unresolved,
		failed, cache_hits, changed, dry_run, error FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id or by unique id prefix.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, finished_at, catalog_path, resolved, skipped,
		unresolved, failed, cache_hits, changed, dry_run, error FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' LIMIT 2`,
		id, escapeLike(id)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, ErrNotFound
	case 1:
		return found[0], nil
	}
	return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
}

// Outcomes returns the per-movie rows of a run in recorded order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT movie_id, title, status, method, critic_score, audience_score, reason
		FROM outcomes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var (
			row              OutcomeRow
			method, reason   sql.NullString
			critic, audience sql.NullInt64
		)
		if err := rows.Scan(&row.MovieID, &row.Title, &row.Status, &method, &critic, &audience, &reason); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		row.Method = method.String
		row.Reason = reason.String
		row.CriticScore = intPtr(critic)
		row.AudienceScore = intPtr(audience)
		out = append(out, row)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		started, finished string
		dryRun            int
		errText           sql.NullString
	)
	if err := sc.Scan(&run.ID, &started, &finished, &run.CatalogPath, &run.Resolved, &run.Skipped,
		&run.Unresolved, &run.Failed, &run.CacheHits, &run.Changed, &dryRun, &errText); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	run.DryRun = dryRun != 0
	run.Error = errText.String
	return run, nil
}
