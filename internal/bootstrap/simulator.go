package bootstrap

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/internal"
	"gotrack/internal/analysis"
	apperrors "gotrack/internal/errors"
	"gotrack/ports"

	mstats "github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"
)

const stageName = "bootstrap"

// Options controls the simulation
type Options struct {
	Draws   int
	Workers int
	Alpha   float64
	Seed    int64
}

// DefaultOptions returns 1000 draws on every CPU at alpha .05
func DefaultOptions() Options {
	return Options{Draws: 1000, Workers: runtime.NumCPU(), Alpha: 0.05, Seed: 42}
}

// Simulator runs independent null draws in parallel. Every draw owns an RNG stream keyed
// by run id and draw index, so results do not depend on worker count or scheduling.
type Simulator struct {
	rng    ports.RNGPort
	opts   Options
	logger *internal.Logger
}

// NewSimulator creates a simulator
func NewSimulator(rng ports.RNGPort, opts Options) *Simulator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 0.05
	}
	return &Simulator{rng: rng, opts: opts, logger: internal.NewDefaultLogger("Bootstrap")}
}

// Run simulates the null distribution of longest divergence runs and scores the observed run
func (s *Simulator) Run(ctx context.Context, runID core.RunID, model *NullModel, observedRun int) (*stats.BootstrapResult, error) {
	if s.opts.Draws < 1 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("bootstrap draws must be positive, got %d", s.opts.Draws))
	}

	start := time.Now()
	runs := make([]int, s.opts.Draws)
	sem := semaphore.NewWeighted(int64(s.opts.Workers))
	var done atomic.Int64
	every := int64(max(s.opts.Draws/10, 1))
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < s.opts.Draws; i++ {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			defer sem.Release(1)
			n, err := s.draw(gctx, runID, model, i)
			if err != nil {
				return err
			}
			runs[i] = n
			s.logger.Trace("draw %d: longest run %d", i, n)
			if d := done.Add(1); d%every == 0 {
				s.logger.Debug("%d/%d draws", d, s.opts.Draws)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.SimulationFailed(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.SimulationFailed(err)
	}

	result := Summarize(runs, observedRun, s.opts.Alpha)
	result.Subjects = model.Subjects
	result.Steps = model.Steps
	result.Phi = model.Phi
	result.Seed = s.opts.Seed

	s.logger.Info("%d draws on %d workers in %v: critical run %d, observed %d, p=%.4f",
		s.opts.Draws, s.opts.Workers, time.Since(start).Round(time.Millisecond), result.CriticalRun, observedRun, result.PValue)
	return result, nil
}

func (s *Simulator) draw(ctx context.Context, runID core.RunID, model *NullModel, index int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rng, err := s.rng.Stream(ctx, runID.String(), stageName, fmt.Sprintf("draw-%d", index), s.opts.Seed)
	if err != nil {
		return 0, fmt.Errorf("rng stream for draw %d: %w", index, err)
	}

	sim := mat.NewDense(model.Steps, model.Subjects, nil)
	model.Simulate(rng, sim)

	_, pValues, err := analysis.RowTTest(sim)
	if err != nil {
		return 0, err
	}
	n, _ := analysis.LongestRun(analysis.Below(pValues, s.opts.Alpha))
	return n, nil
}

// Summarize turns simulated run lengths into the null summary. The critical run is the
// 1-alpha quantile of the null; the p-value is the share of draws at least as long as
// the observed run.
func Summarize(runs []int, observedRun int, alpha float64) *stats.BootstrapResult {
	result := &stats.BootstrapResult{
		Draws:       len(runs),
		Alpha:       alpha,
		NullRuns:    runs,
		ObservedRun: observedRun,
	}
	if len(runs) == 0 {
		result.PValue = 1
		return result
	}

	data := make(mstats.Float64Data, len(runs))
	atLeast := 0
	for i, n := range runs {
		data[i] = float64(n)
		if n >= observedRun {
			atLeast++
		}
	}
	result.NullMean, _ = data.Mean()
	result.NullMedian, _ = data.Median()
	result.PValue = float64(atLeast) / float64(len(runs))

	sorted := make([]int, len(runs))
	copy(sorted, runs)
	sort.Ints(sorted)
	idx := int(math.Ceil((1-alpha)*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	result.CriticalRun = sorted[idx]
	return result
}
