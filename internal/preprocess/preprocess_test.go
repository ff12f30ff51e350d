package preprocess

import (
	"math"
	"testing"

	"gotrack/domain/core"
	"gotrack/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(sub string, n int, typ trial.Type, answer string) trial.Record {
	return trial.Record{
		SubmissionID:    core.SubmissionID(sub),
		TrialNumber:     n,
		Answer:          answer,
		CorrectCategory: "mammal",
		LeftCategory:    "fish",
		RightCategory:   "mammal",
		Type:            typ,
		Times:           []float64{100, 150, 200, 300},
		X:               []float64{500, 500, 520, 700},
		Y:               []float64{800, 790, 700, 400},
	}
}

func rtTrial(sub string, n int, rt float64) *trial.Trial {
	rec := record(sub, n, trial.TypeTypical, "mammal")
	return &trial.Trial{
		ID:      rec.TrialID(),
		Record:  rec,
		Correct: true,
		Samples: []trial.Sample{{Time: 0}, {Time: rt, X: 1}},
	}
}

func TestExplode_RebasesFlipsAndMirrors(t *testing.T) {
	rec := record("1", 1, trial.TypeTypical, "mammal")
	rec.LeftCategory, rec.RightCategory = "mammal", "fish" // correct answer on the left

	tr, err := Explode(rec)
	require.NoError(t, err)

	assert.Equal(t, trial.DirLeft, tr.Direction)
	require.Len(t, tr.Samples, 4)
	assert.Equal(t, trial.Sample{TrialID: "1/1", Time: 0, X: 0, Y: 0}, tr.Samples[0])
	last := tr.Samples[3]
	assert.Equal(t, 200.0, last.Time)
	assert.Equal(t, -200.0, last.X) // mirrored
	assert.Equal(t, 400.0, last.Y)  // flipped, upward is positive
}

func TestExplode_RightDirectionNotMirrored(t *testing.T) {
	tr, err := Explode(record("1", 1, trial.TypeTypical, "mammal"))
	require.NoError(t, err)
	assert.Equal(t, trial.DirRight, tr.Direction)
	assert.Equal(t, 200.0, tr.End().X)
}

func TestExplode_CollapsesDuplicateTimestamps(t *testing.T) {
	rec := record("1", 1, trial.TypeTypical, "mammal")
	rec.Times = []float64{0, 10, 10, 20}

	tr, err := Explode(rec)
	require.NoError(t, err)
	require.Len(t, tr.Samples, 3)
	assert.Equal(t, 0.0, tr.Samples[1].X) // first of the duplicates kept
}

func TestExplode_Rejects(t *testing.T) {
	rec := record("1", 1, trial.TypeTypical, "mammal")
	rec.X = rec.X[:2]
	_, err := Explode(rec)
	assert.ErrorIs(t, err, core.ErrInvalidTrace)

	rec = record("1", 1, trial.TypeTypical, "mammal")
	rec.Times = []float64{0, 20, 10, 30}
	_, err = Explode(rec)
	assert.ErrorIs(t, err, core.ErrInvalidTrace)
}

func TestExplode_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *trial.Record)
	}{
		{"nan time", func(r *trial.Record) { r.Times = []float64{0, math.NaN(), 20, 30} }},
		{"nan first time", func(r *trial.Record) { r.Times[0] = math.NaN() }},
		{"inf x", func(r *trial.Record) { r.X[2] = math.Inf(1) }},
		{"nan y", func(r *trial.Record) { r.Y[3] = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record("1", 1, trial.TypeTypical, "mammal")
			tt.mutate(&rec)
			_, err := Explode(rec)
			assert.ErrorIs(t, err, core.ErrInvalidTrace)
		})
	}
}

func TestFilter_DropsNonFiniteTrace(t *testing.T) {
	bad := record("1", 2, trial.TypeAtypical, "mammal")
	bad.Times = []float64{0, math.NaN(), 20, 30}

	trials, report := Filter([]trial.Record{record("1", 1, trial.TypeTypical, "mammal"), bad}, FilterOptions{})
	require.Len(t, trials, 1)
	assert.Equal(t, map[string]int{DropInvalidTrace: 1}, report.Drops)
}

func TestFilter(t *testing.T) {
	short := record("2", 4, trial.TypeTypical, "mammal")
	short.Times, short.X, short.Y = []float64{5, 5}, []float64{1, 1}, []float64{1, 1}
	empty := record("2", 5, trial.TypeAtypical, "mammal")
	empty.Times = nil
	broken := record("2", 6, trial.TypeAtypical, "mammal")
	broken.Y = broken.Y[:1]

	records := []trial.Record{
		record("1", 1, trial.TypeTypical, "mammal"),
		record("1", 2, trial.TypeAtypical, "fish"),
		record("1", 3, trial.Type("filler"), "mammal"),
		short, empty, broken,
	}

	trials, report := Filter(records, FilterOptions{})
	require.Len(t, trials, 2)
	assert.Equal(t, 6, report.Input)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, map[string]int{
		DropNonExperimental: 1,
		DropTooShort:        1,
		DropEmptyTrace:      1,
		DropInvalidTrace:    1,
	}, report.Drops)
}

func TestFilter_MinAccuracy(t *testing.T) {
	records := []trial.Record{
		record("good", 1, trial.TypeTypical, "mammal"),
		record("good", 2, trial.TypeAtypical, "mammal"),
		record("bad", 1, trial.TypeTypical, "fish"),
		record("bad", 2, trial.TypeAtypical, "mammal"),
	}

	trials, report := Filter(records, FilterOptions{MinAccuracy: 0.75})
	require.Len(t, trials, 2)
	assert.Equal(t, 2, report.Drops[DropLowAccuracy])
	for _, tr := range trials {
		assert.EqualValues(t, "good", tr.Submission())
	}
}

func TestJoin(t *testing.T) {
	withHand := record("1", 1, trial.TypeTypical, "mammal")
	withHand.Handedness = trial.HandLeft
	records := []trial.Record{withHand, record("1", 2, trial.TypeTypical, "mammal"), record("9", 1, trial.TypeTypical, "mammal")}
	participants := []trial.Participant{{SubmissionID: "1", Handedness: trial.HandRight}}

	joined, report := Join(records, participants)

	assert.Equal(t, trial.HandLeft, joined[0].Handedness, "existing handedness wins")
	assert.Equal(t, trial.HandRight, joined[1].Handedness)
	assert.Equal(t, trial.HandUnknown, joined[2].Handedness)
	assert.Equal(t, JoinReport{Matched: 1, Unmatched: 1, Kept: 1}, report)
	assert.Equal(t, trial.HandUnknown, records[1].Handedness, "input untouched")
}

func TestRejectOutliers_Global(t *testing.T) {
	var trials []*trial.Trial
	for i := 0; i < 20; i++ {
		trials = append(trials, rtTrial("1", i+1, 1000+10*float64(i)))
	}
	trials = append(trials, rtTrial("1", 99, 10000))

	kept, report := RejectOutliers(trials, DefaultOutlierOptions())

	assert.Len(t, kept, 20)
	assert.Equal(t, []core.TrialID{"1/99"}, report.Removed)
	assert.Equal(t, 2, report.Passes)
}

func TestRejectOutliers_SubjectScope(t *testing.T) {
	var trials []*trial.Trial
	for _, sub := range []string{"fast", "slow"} {
		base := 800.0
		if sub == "slow" {
			base = 2500
		}
		for i := 0; i < 15; i++ {
			trials = append(trials, rtTrial(sub, i+1, base+5*float64(i)))
		}
		trials = append(trials, rtTrial(sub, 50, base*6))
	}

	opts := DefaultOutlierOptions()
	opts.Scope = ScopeSubject
	kept, report := RejectOutliers(trials, opts)

	assert.Len(t, kept, 30)
	assert.ElementsMatch(t, []core.TrialID{"fast/50", "slow/50"}, report.Removed)
}

func TestRejectOutliers_TooFewTrials(t *testing.T) {
	trials := []*trial.Trial{rtTrial("1", 1, 500), rtTrial("1", 2, 50000)}
	kept, report := RejectOutliers(trials, DefaultOutlierOptions())
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, report.Passes)
}

func TestFilterCorrect(t *testing.T) {
	a := rtTrial("1", 1, 500)
	b := rtTrial("1", 2, 500)
	b.Correct = false

	kept, removed := FilterCorrect([]*trial.Trial{a, b})
	assert.Equal(t, []*trial.Trial{a}, kept)
	assert.Equal(t, 1, removed)
}
