package migration

import (
	"context"

	"gotrack/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the result schema. Statements are written in the subset of SQL
// shared by PostgreSQL and SQLite and are safe to re-run.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}

	if err := r.createTrialMetricsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create trial_metrics table")
	}

	if err := r.createTestResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create test_results table")
	}

	if err := r.createBootstrapResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create bootstrap_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			fingerprint TEXT NOT NULL,
			settings TEXT,
			funnel TEXT,
			warnings TEXT,
			loaded INTEGER NOT NULL DEFAULT 0,
			analysed INTEGER NOT NULL DEFAULT 0,
			subjects INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

func (r *MigrationRunner) createTrialMetricsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trial_metrics (
			run_id TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			trial_id TEXT NOT NULL,
			submission_id TEXT NOT NULL,
			trial_type TEXT NOT NULL,
			handedness TEXT NOT NULL DEFAULT '',
			movement_init DOUBLE PRECISION NOT NULL,
			movement_duration DOUBLE PRECISION NOT NULL,
			total_rt DOUBLE PRECISION NOT NULL,
			initial_angle DOUBLE PRECISION NOT NULL,
			distance_travelled DOUBLE PRECISION NOT NULL,
			auc DOUBLE PRECISION NOT NULL,
			max_deviation DOUBLE PRECISION NOT NULL,
			x_flips INTEGER NOT NULL,
			PRIMARY KEY (run_id, trial_id)
		)
	`)
	return err
}

func (r *MigrationRunner) createTestResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS test_results (
			run_id TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			family TEXT NOT NULL,
			metric TEXT NOT NULL,
			test TEXT NOT NULL,
			statistic DOUBLE PRECISION,
			df1 DOUBLE PRECISION,
			df2 DOUBLE PRECISION,
			p_value DOUBLE PRECISION,
			effect_size DOUBLE PRECISION,
			detail TEXT,
			PRIMARY KEY (run_id, seq)
		)
	`)
	return err
}

func (r *MigrationRunner) createBootstrapResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bootstrap_results (
			run_id TEXT PRIMARY KEY REFERENCES analysis_runs(id) ON DELETE CASCADE,
			draws INTEGER NOT NULL,
			subjects INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			phi DOUBLE PRECISION NOT NULL,
			seed BIGINT NOT NULL,
			observed_run INTEGER NOT NULL,
			critical_run INTEGER NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			null_mean DOUBLE PRECISION,
			null_median DOUBLE PRECISION,
			null_runs TEXT
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_created_at ON analysis_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_fingerprint ON analysis_runs(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_trial_metrics_submission ON trial_metrics(run_id, submission_id)`,
		`CREATE INDEX IF NOT EXISTS idx_test_results_family ON test_results(run_id, family)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
