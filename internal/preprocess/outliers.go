package preprocess

import (
	"log"
	"math"

	"gotrack/domain/core"
	"gotrack/domain/trial"

	"github.com/montanaflynn/stats"
)

// Outlier scopes
const (
	ScopeGlobal  = "global"
	ScopeSubject = "subject"
)

// OutlierOptions controls iterative z-score trimming
type OutlierOptions struct {
	Z             float64
	MaxIterations int
	Scope         string
}

// DefaultOutlierOptions trims at |z| > 3 over the whole sample
func DefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{Z: 3, MaxIterations: 50, Scope: ScopeGlobal}
}

// OutlierReport records what the trimming removed
type OutlierReport struct {
	Passes  int            `json:"passes"`
	Removed []core.TrialID `json:"removed"`
}

// RejectOutliers trims trials by total response time. Each pass computes the mean and
// sample SD of the trials still kept, removes every trial with |z| above the threshold and
// repeats until a pass removes nothing, the SD collapses to zero, or MaxIterations is hit.
// With ScopeSubject the loop runs independently inside every submission.
func RejectOutliers(trials []*trial.Trial, opts OutlierOptions) ([]*trial.Trial, OutlierReport) {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}

	removed := make(map[core.TrialID]bool)
	var report OutlierReport

	if opts.Scope == ScopeSubject {
		groups := make(map[core.SubmissionID][]*trial.Trial)
		var order []core.SubmissionID
		for _, t := range trials {
			sub := t.Submission()
			if _, ok := groups[sub]; !ok {
				order = append(order, sub)
			}
			groups[sub] = append(groups[sub], t)
		}
		for _, sub := range order {
			passes := trimGroup(groups[sub], opts, removed)
			if passes > report.Passes {
				report.Passes = passes
			}
		}
	} else {
		report.Passes = trimGroup(trials, opts, removed)
	}

	kept := make([]*trial.Trial, 0, len(trials)-len(removed))
	for _, t := range trials {
		if removed[t.ID] {
			report.Removed = append(report.Removed, t.ID)
			continue
		}
		kept = append(kept, t)
	}

	log.Printf("[Preprocess] Outlier trimming (%s, |z|>%.2f) removed %d trials in %d passes",
		opts.Scope, opts.Z, len(report.Removed), report.Passes)
	return kept, report
}

// trimGroup marks outliers of one group in removed and returns the number of passes run
func trimGroup(group []*trial.Trial, opts OutlierOptions, removed map[core.TrialID]bool) int {
	passes := 0
	for passes < opts.MaxIterations {
		var live []*trial.Trial
		values := make([]float64, 0, len(group))
		for _, t := range group {
			if !removed[t.ID] {
				live = append(live, t)
				values = append(values, t.TotalRT())
			}
		}
		if len(values) < 3 {
			return passes
		}

		mean, err := stats.Mean(values)
		if err != nil {
			return passes
		}
		sd, err := stats.StandardDeviationSample(values)
		if err != nil || sd == 0 || math.IsNaN(sd) {
			return passes
		}

		passes++
		dropped := 0
		for i, t := range live {
			if math.Abs((values[i]-mean)/sd) > opts.Z {
				removed[t.ID] = true
				dropped++
			}
		}
		if dropped == 0 {
			return passes
		}
	}
	return passes
}
