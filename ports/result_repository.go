package ports

import (
	"context"
	"time"

	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/domain/trial"
)

// RunSummary is the stored header of an analysis run
type RunSummary struct {
	ID          core.RunID `json:"id" db:"id"`
	Fingerprint core.Hash  `json:"fingerprint" db:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	Loaded      int        `json:"loaded" db:"loaded"`
	Analysed    int        `json:"analysed" db:"analysed"`
	Subjects    int        `json:"subjects" db:"subjects"`
}

// ResultRepository persists analysis runs and their outputs
type ResultRepository interface {
	SaveRun(ctx context.Context, report *stats.AnalysisReport) error
	SaveMetrics(ctx context.Context, runID core.RunID, metrics []trial.Metrics) error
	SaveTests(ctx context.Context, runID core.RunID, records []stats.TestRecord) error
	SaveBootstrap(ctx context.Context, runID core.RunID, result *stats.BootstrapResult) error

	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	GetRun(ctx context.Context, runID core.RunID) (*RunSummary, error)
	GetMetrics(ctx context.Context, runID core.RunID) ([]trial.Metrics, error)
	GetTests(ctx context.Context, runID core.RunID) ([]stats.TestRecord, error)
	GetBootstrap(ctx context.Context, runID core.RunID) (*stats.BootstrapResult, error)
}
