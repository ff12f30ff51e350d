package preprocess

import (
	"log"
	"strconv"
	"strings"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// Drop reasons reported by Filter
const (
	DropNonExperimental = "non_experimental"
	DropEmptyTrace      = "empty_trace"
	DropInvalidTrace    = "invalid_trace"
	DropTooShort        = "too_short"
	DropLowAccuracy     = "low_accuracy"
)

// FilterOptions controls record-level filtering
type FilterOptions struct {
	// MinAccuracy drops whole submissions whose proportion of correct experimental
	// trials is below this value. Zero disables the check.
	MinAccuracy float64
}

// FilterReport summarises what Filter removed
type FilterReport struct {
	Input int            `json:"input"`
	Kept  int            `json:"kept"`
	Drops map[string]int `json:"drops"`
}

// Filter keeps typical/atypical trials with a usable trace and explodes them into samples
func Filter(records []trial.Record, opts FilterOptions) ([]*trial.Trial, FilterReport) {
	report := FilterReport{Input: len(records), Drops: make(map[string]int)}

	lowAccuracy := map[core.SubmissionID]bool{}
	if opts.MinAccuracy > 0 {
		lowAccuracy = submissionsBelowAccuracy(records, opts.MinAccuracy)
	}

	trials := make([]*trial.Trial, 0, len(records))
	for _, rec := range records {
		if !rec.Type.IsExperimental() {
			report.Drops[DropNonExperimental]++
			continue
		}
		if lowAccuracy[rec.SubmissionID] {
			report.Drops[DropLowAccuracy]++
			continue
		}
		if len(rec.Times) == 0 {
			report.Drops[DropEmptyTrace]++
			continue
		}

		t, err := Explode(rec)
		if err != nil {
			report.Drops[DropInvalidTrace]++
			continue
		}
		if len(t.Samples) < 2 {
			report.Drops[DropTooShort]++
			continue
		}
		trials = append(trials, t)
	}

	report.Kept = len(trials)
	log.Printf("[Preprocess] Filter kept %d of %d records (%s)", report.Kept, report.Input, formatDrops(report.Drops))
	return trials, report
}

func submissionsBelowAccuracy(records []trial.Record, min float64) map[core.SubmissionID]bool {
	total := make(map[core.SubmissionID]int)
	correct := make(map[core.SubmissionID]int)
	for _, rec := range records {
		if !rec.Type.IsExperimental() {
			continue
		}
		total[rec.SubmissionID]++
		if rec.Correct() {
			correct[rec.SubmissionID]++
		}
	}

	low := make(map[core.SubmissionID]bool)
	for sub, n := range total {
		if float64(correct[sub])/float64(n) < min {
			low[sub] = true
		}
	}
	return low
}

func formatDrops(drops map[string]int) string {
	if len(drops) == 0 {
		return "no drops"
	}
	parts := make([]string, 0, len(drops))
	for _, reason := range []string{DropNonExperimental, DropLowAccuracy, DropEmptyTrace, DropInvalidTrace, DropTooShort} {
		if n := drops[reason]; n > 0 {
			parts = append(parts, reason+"="+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, ", ")
}
