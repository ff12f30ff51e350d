package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/domain/trial"
	apperrors "gotrack/internal/errors"
	"gotrack/ports"

	"github.com/jmoiron/sqlx"
)

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// SaveRun inserts the run header with its settings, funnel and warnings
func (r *resultRepository) SaveRun(ctx context.Context, report *stats.AnalysisReport) error {
	settingsJSON, err := json.Marshal(report.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	funnelJSON, err := json.Marshal(report.Funnel)
	if err != nil {
		return fmt.Errorf("failed to marshal funnel: %w", err)
	}
	warningsJSON, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO analysis_runs (
		id, created_at, fingerprint, settings, funnel, warnings, loaded, analysed, subjects
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		report.RunID.String(), report.CreatedAt.UTC(), report.Fingerprint.String(),
		string(settingsJSON), string(funnelJSON), string(warningsJSON),
		report.Funnel.Loaded, report.Funnel.Analysed, report.Funnel.Subjects,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

type metricsRow struct {
	RunID string `db:"run_id"`
	trial.Metrics
}

// SaveMetrics stores every trial's metrics in one transaction. Metric columns are NOT NULL,
// so a non-finite value rejects the whole batch.
func (r *resultRepository) SaveMetrics(ctx context.Context, runID core.RunID, metrics []trial.Metrics) error {
	for _, m := range metrics {
		if name, bad := m.NonFinite(); bad {
			return apperrors.InvalidInput(fmt.Sprintf("trial %s: metric %s is not finite", m.TrialID, name))
		}
	}

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO trial_metrics (
			run_id, trial_id, submission_id, trial_type, handedness,
			movement_init, movement_duration, total_rt, initial_angle,
			distance_travelled, auc, max_deviation, x_flips
		) VALUES (
			:run_id, :trial_id, :submission_id, :trial_type, :handedness,
			:movement_init, :movement_duration, :total_rt, :initial_angle,
			:distance_travelled, :auc, :max_deviation, :x_flips
		)`)
		if err != nil {
			return fmt.Errorf("failed to prepare metrics insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range metrics {
			if _, err := stmt.ExecContext(ctx, metricsRow{RunID: runID.String(), Metrics: m}); err != nil {
				return fmt.Errorf("failed to save metrics for %s: %w", m.TrialID, err)
			}
		}
		return nil
	})
}

type testRow struct {
	Seq        int             `db:"seq"`
	Family     string          `db:"family"`
	Metric     string          `db:"metric"`
	Test       string          `db:"test"`
	Statistic  sql.NullFloat64 `db:"statistic"`
	DF1        sql.NullFloat64 `db:"df1"`
	DF2        sql.NullFloat64 `db:"df2"`
	PValue     sql.NullFloat64 `db:"p_value"`
	EffectSize sql.NullFloat64 `db:"effect_size"`
	Detail     sql.NullString  `db:"detail"`
}

// SaveTests stores flattened test records; NaN and infinite values become NULL
func (r *resultRepository) SaveTests(ctx context.Context, runID core.RunID, records []stats.TestRecord) error {
	query := r.db.Rebind(`INSERT INTO test_results (
		run_id, seq, family, metric, test, statistic, df1, df2, p_value, effect_size, detail
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for i, rec := range records {
			detail := sql.NullString{}
			if len(rec.Detail) > 0 {
				b, err := json.Marshal(rec.Detail)
				if err != nil {
					return fmt.Errorf("failed to marshal detail: %w", err)
				}
				detail = sql.NullString{String: string(b), Valid: true}
			}

			_, err := tx.ExecContext(ctx, query,
				runID.String(), i, rec.Family, rec.Metric, string(rec.Test),
				nullable(rec.Statistic), nullable(rec.DF1), nullable(rec.DF2),
				nullable(rec.PValue), nullable(rec.EffectSize), detail,
			)
			if err != nil {
				return fmt.Errorf("failed to save test %s/%s: %w", rec.Metric, rec.Test, err)
			}
		}
		return nil
	})
}

// SaveBootstrap stores the null distribution summary of a run
func (r *resultRepository) SaveBootstrap(ctx context.Context, runID core.RunID, result *stats.BootstrapResult) error {
	runsJSON, err := json.Marshal(result.NullRuns)
	if err != nil {
		return fmt.Errorf("failed to marshal null runs: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO bootstrap_results (
		run_id, draws, subjects, steps, alpha, phi, seed, observed_run, critical_run,
		p_value, null_mean, null_median, null_runs
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		runID.String(), result.Draws, result.Subjects, result.Steps, result.Alpha, result.Phi,
		result.Seed, result.ObservedRun, result.CriticalRun, result.PValue,
		result.NullMean, result.NullMedian, string(runsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save bootstrap result: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first
func (r *resultRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.Rebind(`SELECT id, fingerprint, created_at, loaded, analysed, subjects
		FROM analysis_runs
		ORDER BY created_at DESC
		LIMIT ?`)

	var runs []ports.RunSummary
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves a run header by id
func (r *resultRepository) GetRun(ctx context.Context, runID core.RunID) (*ports.RunSummary, error) {
	query := r.db.Rebind(`SELECT id, fingerprint, created_at, loaded, analysed, subjects
		FROM analysis_runs WHERE id = ?`)

	var run ports.RunSummary
	if err := r.db.GetContext(ctx, &run, query, runID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound(fmt.Errorf("%w: %s", core.ErrRunNotFound, runID))
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// GetMetrics retrieves the trial metrics of a run in trial order
func (r *resultRepository) GetMetrics(ctx context.Context, runID core.RunID) ([]trial.Metrics, error) {
	query := r.db.Rebind(`SELECT
		trial_id, submission_id, trial_type, handedness,
		movement_init, movement_duration, total_rt, initial_angle,
		distance_travelled, auc, max_deviation, x_flips
	FROM trial_metrics WHERE run_id = ?
	ORDER BY submission_id, trial_id`)

	var metrics []trial.Metrics
	if err := r.db.SelectContext(ctx, &metrics, query, runID.String()); err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	return metrics, nil
}

// GetTests retrieves the test records of a run in the order they were saved
func (r *resultRepository) GetTests(ctx context.Context, runID core.RunID) ([]stats.TestRecord, error) {
	query := r.db.Rebind(`SELECT
		seq, family, metric, test, statistic, df1, df2, p_value, effect_size, detail
	FROM test_results WHERE run_id = ?
	ORDER BY seq`)

	var rows []testRow
	if err := r.db.SelectContext(ctx, &rows, query, runID.String()); err != nil {
		return nil, fmt.Errorf("failed to get tests: %w", err)
	}

	records := make([]stats.TestRecord, 0, len(rows))
	for _, row := range rows {
		rec := stats.TestRecord{
			Family:     row.Family,
			Metric:     row.Metric,
			Test:       stats.TestKind(row.Test),
			Statistic:  fromNullable(row.Statistic),
			DF1:        fromNullable(row.DF1),
			DF2:        fromNullable(row.DF2),
			PValue:     fromNullable(row.PValue),
			EffectSize: fromNullable(row.EffectSize),
		}
		if row.Detail.Valid {
			if err := json.Unmarshal([]byte(row.Detail.String), &rec.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetBootstrap retrieves the bootstrap summary of a run
func (r *resultRepository) GetBootstrap(ctx context.Context, runID core.RunID) (*stats.BootstrapResult, error) {
	query := r.db.Rebind(`SELECT
		draws, subjects, steps, alpha, phi, seed, observed_run, critical_run,
		p_value, null_mean, null_median, null_runs
	FROM bootstrap_results WHERE run_id = ?`)

	var (
		result   stats.BootstrapResult
		runsJSON sql.NullString
	)
	err := r.db.QueryRowxContext(ctx, query, runID.String()).Scan(
		&result.Draws, &result.Subjects, &result.Steps, &result.Alpha, &result.Phi, &result.Seed,
		&result.ObservedRun, &result.CriticalRun, &result.PValue,
		&result.NullMean, &result.NullMedian, &runsJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound(core.NewNotFoundError("bootstrap result", runID.String()))
		}
		return nil, fmt.Errorf("failed to get bootstrap result: %w", err)
	}
	if runsJSON.Valid {
		if err := json.Unmarshal([]byte(runsJSON.String), &result.NullRuns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal null runs: %w", err)
		}
	}
	return &result, nil
}

func (r *resultRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// notFound tags a domain not-found error with the NOT_FOUND code; errors.Is still sees the sentinel
func notFound(err error) error {
	return apperrors.WithCode(apperrors.CodeNotFound, err)
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
