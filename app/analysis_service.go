package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/domain/trial"
	"gotrack/internal"
	"gotrack/internal/analysis"
	"gotrack/internal/bootstrap"
	"gotrack/internal/config"
	"gotrack/internal/errors"
	"gotrack/internal/kinematics"
	"gotrack/internal/normalize"
	"gotrack/internal/preprocess"
	"gotrack/ports"
)

// AnalysisService runs the full pipeline: load, filter, trim, normalize, derive metrics,
// test and simulate
type AnalysisService struct {
	config       *config.Config
	source       ports.TrialSource
	participants ports.ParticipantSource // optional
	results      ports.ResultRepository  // optional
	rngPort      ports.RNGPort
	logger       *internal.Logger
}

// NewAnalysisService creates a new analysis service. participants and results may be nil.
func NewAnalysisService(cfg *config.Config, source ports.TrialSource, participants ports.ParticipantSource, results ports.ResultRepository, rngPort ports.RNGPort) *AnalysisService {
	return &AnalysisService{
		config:       cfg,
		source:       source,
		participants: participants,
		results:      results,
		rngPort:      rngPort,
		logger:       internal.NewDefaultLogger("Pipeline"),
	}
}

// Prepared is the cleaned and normalized dataset, ready for testing
type Prepared struct {
	Dataset  *analysis.Dataset
	Funnel   stats.Funnel
	Warnings []string
}

// Prepare runs every stage up to and including metric derivation
func (s *AnalysisService) Prepare(ctx context.Context) (*Prepared, error) {
	start := time.Now()
	records, err := s.source.ReadTrials(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load trials")
	}
	stage("load", len(records), start)

	funnel := stats.Funnel{Loaded: len(records)}
	var warnings []string

	if s.participants != nil {
		start = time.Now()
		people, err := s.participants.ReadParticipants(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load participants")
		}
		var report preprocess.JoinReport
		records, report = preprocess.Join(records, people)
		if report.Unmatched > 0 {
			warnings = append(warnings, fmt.Sprintf("%d records have no participant entry", report.Unmatched))
		}
		stage("join", len(records), start)
	}

	start = time.Now()
	trials, filterReport := preprocess.Filter(records, preprocess.FilterOptions{MinAccuracy: s.config.Preprocess.MinAccuracy})
	funnel.Filtered = filterReport.Kept
	funnel.FilterDrops = filterReport.Drops
	stage("filter", len(trials), start)

	start = time.Now()
	trials, outliers := preprocess.RejectOutliers(trials, preprocess.OutlierOptions{
		Z:             s.config.Preprocess.OutlierZ,
		MaxIterations: s.config.Preprocess.OutlierMaxIterations,
		Scope:         s.config.Preprocess.OutlierScope,
	})
	funnel.OutlierPasses = outliers.Passes
	funnel.OutliersRemoved = len(outliers.Removed)
	stage("outliers", len(trials), start)

	start = time.Now()
	trials, funnel.Incorrect = preprocess.FilterCorrect(trials)
	stage("correctness", len(trials), start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	norm := normalize.All(trials, s.config.Normalize.TimeSteps, normalize.SpaceOptions{
		Bins:     s.config.Normalize.SpaceBins,
		BinWidth: s.config.Normalize.BinWidth,
	})
	stage("normalize", len(norm.Time), start)

	start = time.Now()
	metrics, failed := kinematics.ComputeAll(trials)
	stage("metrics", len(metrics), start)

	if n := len(norm.Failed) + len(failed); n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d trials dropped during normalization or metric derivation", n))
	}

	ds := assemble(trials, metrics, norm, failed)
	funnel.Analysed = len(ds.Trials)
	subjects := make(map[core.SubmissionID]bool)
	for _, t := range ds.Trials {
		subjects[t.Submission()] = true
		switch t.Type() {
		case trial.TypeTypical:
			funnel.Typical++
		case trial.TypeAtypical:
			funnel.Atypical++
		}
	}
	funnel.Subjects = len(subjects)

	if funnel.Analysed == 0 {
		return nil, errors.InsufficientData("no trials survived preprocessing")
	}
	return &Prepared{Dataset: ds, Funnel: funnel, Warnings: warnings}, nil
}

// assemble keeps only trials that both normalized and produced metrics
func assemble(trials []*trial.Trial, metrics []trial.Metrics, norm *normalize.Result, failed map[core.TrialID]error) *analysis.Dataset {
	ds := &analysis.Dataset{Time: norm.Time, Space: norm.Space}
	for _, t := range trials {
		if _, bad := failed[t.ID]; bad {
			continue
		}
		if _, ok := norm.Time[t.ID]; !ok {
			continue
		}
		ds.Trials = append(ds.Trials, t)
	}
	for _, m := range metrics {
		if _, ok := norm.Time[m.TrialID]; ok {
			ds.Metrics = append(ds.Metrics, m)
		}
	}
	for id := range norm.Time {
		if _, bad := failed[id]; bad {
			delete(norm.Time, id)
			delete(norm.Space, id)
		}
	}
	return ds
}

// Run executes the whole pipeline and, when configured, stores and writes the report
func (s *AnalysisService) Run(ctx context.Context) (*stats.AnalysisReport, *Prepared, error) {
	prepared, err := s.Prepare(ctx)
	if err != nil {
		return nil, nil, err
	}

	report := &stats.AnalysisReport{
		RunID:     core.NewRunID(),
		CreatedAt: time.Now().UTC(),
		Settings:  s.config.Settings(),
		Funnel:    prepared.Funnel,
		Warnings:  prepared.Warnings,
	}
	report.Fingerprint = fingerprint(prepared.Dataset.Trials, report.Settings)
	log.Printf("[Pipeline] Run %s (fingerprint %s)", report.RunID, report.Fingerprint.Short())

	start := time.Now()
	battery := analysis.NewBattery(s.config.Analysis.Alpha).Run(prepared.Dataset)
	report.Metrics = battery.Metrics
	report.SpaceANOVA = battery.SpaceANOVA
	report.Divergence = battery.Divergence
	report.Warnings = append(report.Warnings, battery.Warnings...)
	stage("tests", len(prepared.Dataset.Metrics), start)

	if s.config.Bootstrap.Enabled {
		start = time.Now()
		result, err := s.simulate(ctx, report.RunID, battery)
		if err != nil {
			return nil, nil, err
		}
		report.Bootstrap = result
		if result == nil {
			report.Warnings = append(report.Warnings, "bootstrap skipped: no divergence curves")
		}
		stage("bootstrap", s.config.Bootstrap.Draws, start)
	}

	for _, w := range report.Warnings {
		s.logger.Warn("%s", w)
	}

	if err := s.persist(ctx, report, prepared.Dataset.Metrics); err != nil {
		return nil, nil, err
	}

	if path := s.config.Output.ReportFile; path != "" {
		if err := WriteReport(path, report); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to write report to %s", path)
		}
		log.Printf("[Pipeline] Report written to %s", path)
	}
	return report, prepared, nil
}

// simulate fits the null model to the observed difference curves and runs the draws.
// It returns nil without error when there is nothing to simulate.
func (s *AnalysisService) simulate(ctx context.Context, runID core.RunID, battery *analysis.BatteryResult) (*stats.BootstrapResult, error) {
	if battery.DiffCurves == nil || battery.Divergence == nil {
		return nil, nil
	}
	model, err := bootstrap.EstimateNull(battery.DiffCurves)
	if err != nil {
		log.Printf("[Pipeline] Bootstrap null model unavailable: %v", err)
		return nil, nil
	}

	sim := bootstrap.NewSimulator(s.rngPort, bootstrap.Options{
		Draws:   s.config.Bootstrap.Draws,
		Workers: s.config.Bootstrap.Workers,
		Alpha:   s.config.Analysis.Alpha,
		Seed:    s.config.Bootstrap.Seed,
	})
	return sim.Run(ctx, runID, model, battery.Divergence.LongestRun)
}

func (s *AnalysisService) persist(ctx context.Context, report *stats.AnalysisReport, metrics []trial.Metrics) error {
	if s.results == nil {
		return nil
	}
	if err := s.results.SaveRun(ctx, report); err != nil {
		return errors.DatabaseError("failed to save run", err)
	}
	if err := s.results.SaveMetrics(ctx, report.RunID, metrics); err != nil {
		return errors.DatabaseError("failed to save metrics", err)
	}
	if err := s.results.SaveTests(ctx, report.RunID, report.Records()); err != nil {
		return errors.DatabaseError("failed to save tests", err)
	}
	if report.Bootstrap != nil {
		if err := s.results.SaveBootstrap(ctx, report.RunID, report.Bootstrap); err != nil {
			return errors.DatabaseError("failed to save bootstrap result", err)
		}
	}
	log.Printf("[Pipeline] Run %s persisted", report.RunID)
	return nil
}

// WriteReport writes the report as indented JSON
func WriteReport(path string, report *stats.AnalysisReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func fingerprint(trials []*trial.Trial, settings map[string]interface{}) core.Hash {
	ids := make([]string, len(trials))
	for i, t := range trials {
		ids[i] = t.ID.String()
	}
	sort.Strings(ids)
	return core.ComputeRunFingerprint(ids, settings)
}

func stage(name string, count int, start time.Time) {
	log.Printf("[Pipeline] %-12s %6d  (%v)", name, count, time.Since(start).Round(time.Microsecond))
}
