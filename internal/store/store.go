// Package store keeps a history of packing runs in a SQLite database so
// verdicts can be listed and compared later.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/piwi3910/FitCheck/internal/logging"
	"github.com/piwi3910/FitCheck/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Outcome tells whether a recorded run reached a verdict.
type Outcome string

const (
	OutcomeDecided       Outcome = "decided"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// Run is one recorded packing run.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Source     string
	Container  string
	Objects    int
	Placed     int
	Feasible   bool
	Reason     model.Reason
	Outcome    Outcome
	PosesTried int64
	Elapsed    time.Duration
	Config     model.Config
	Result     model.PackingResult
}

// Store wraps the history database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the history database at path and brings its
// schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps writes serialised.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{db: db, logger: logging.L(), now: time.Now}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed (already at latest version).
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared *sql.DB as well.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{log: s.logger.Sugar()}
	return m, nil
}

// migrateLogger implements migrate.Logger on top of zap.
type migrateLogger struct {
	log *zap.SugaredLogger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// Record stores the outcome of one packing run. runErr is the error
// returned by the packer, if any; only indeterminate runs are recorded
// alongside decided ones, other errors are rejected.
func (s *Store) Record(ctx context.Context, source string, cfg model.Config, result model.PackingResult, runErr error) (Run, error) {
	outcome := OutcomeDecided
	if runErr != nil {
		if !errors.Is(runErr, model.ErrIndeterminate) {
			return Run{}, fmt.Errorf("cannot record failed run: %w", runErr)
		}
		outcome = OutcomeIndeterminate
	}

	run := Run{
		ID:         uuid.New().String(),
		CreatedAt:  s.now().UTC(),
		Source:     source,
		Container:  result.Container.Label,
		Objects:    len(result.Objects),
		Placed:     len(result.Placements),
		Feasible:   result.Feasible,
		Reason:     result.Reason,
		Outcome:    outcome,
		PosesTried: result.Stats.PosesTried,
		Elapsed:    result.Stats.Elapsed,
		Config:     cfg,
		Result:     result,
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return Run{}, fmt.Errorf("failed to marshal config: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return Run{}, fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, created_at, source, container, objects, placed, feasible,
			reason, outcome, poses_tried, elapsed_ns, config_json, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(timeLayout), run.Source, run.Container,
		run.Objects, run.Placed, run.Feasible, string(run.Reason), string(run.Outcome),
		run.PosesTried, int64(run.Elapsed), string(configJSON), string(resultJSON),
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	s.logger.Debug("recorded run", zap.String("run_id", run.ID), zap.Bool("feasible", run.Feasible))
	return run, nil
}

const selectRuns = `
	SELECT run_id, created_at, source, container, objects, placed, feasible,
	       reason, outcome, poses_tried, elapsed_ns, config_json, result_json
	FROM runs`

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := selectRuns + ` ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given ID, or ErrRunNotFound.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Delete removes a run. Deleting an unknown ID returns ErrRunNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                    Run
		createdAt              string
		reason, outcome        string
		elapsed                int64
		configJSON, resultJSON string
	)
	err := sc.Scan(
		&run.ID, &createdAt, &run.Source, &run.Container, &run.Objects, &run.Placed,
		&run.Feasible, &reason, &outcome, &run.PosesTried, &elapsed, &configJSON, &resultJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad timestamp %q: %w", run.ID, createdAt, err)
	}
	run.Reason = model.Reason(reason)
	run.Outcome = Outcome(outcome)
	run.Elapsed = time.Duration(elapsed)

	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return Run{}, fmt.Errorf("run %s: bad config: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &run.Result); err != nil {
		return Run{}, fmt.Errorf("run %s: bad result: %w", run.ID, err)
	}
	return run, nil
}
