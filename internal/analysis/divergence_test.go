package analysis

import (
	"math"
	"testing"

	"gotrack/domain/core"
	"gotrack/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLongestRun(t *testing.T) {
	tests := []struct {
		name   string
		flags  []bool
		length int
		start  int
	}{
		{"empty", nil, 0, -1},
		{"none", []bool{false, false}, 0, -1},
		{"single", []bool{false, true, false}, 1, 1},
		{"longest wins", []bool{true, false, true, true, true, false, true, true}, 3, 2},
		{"earliest on tie", []bool{true, true, false, true, true}, 2, 0},
		{"all", []bool{true, true, true}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, start := LongestRun(tt.flags)
			assert.Equal(t, tt.length, length)
			assert.Equal(t, tt.start, start)
		})
	}
}

func TestRowTTest_MatchesPairedTest(t *testing.T) {
	m := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		0, 0, 0, 0,
		-1, 0.5, -2, 0.25,
	})
	tStats, pValues, err := RowTTest(m)
	require.NoError(t, err)
	require.Len(t, tStats, 3)

	assert.InDelta(t, 3.872983, tStats[0], 1e-6)
	assert.Equal(t, 0.0, tStats[1])
	assert.Equal(t, 1.0, pValues[1])

	zeros := []float64{0, 0, 0, 0}
	for _, r := range []int{0, 2} {
		paired, err := PairedTTest(mat.Row(nil, r, m), zeros)
		require.NoError(t, err)
		assert.InDelta(t, paired.T, tStats[r], 1e-9)
		assert.InDelta(t, paired.PValue, pValues[r], 1e-9)
	}
}

func TestRowTTest_NeedsTwoColumns(t *testing.T) {
	_, _, err := RowTTest(mat.NewDense(2, 1, []float64{1, 2}))
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestDifferenceCurves(t *testing.T) {
	typ := map[core.SubmissionID][]float64{"b": {0, 1}, "a": {0, 2}, "only-typical": {0, 0}}
	atyp := map[core.SubmissionID][]float64{"a": {0, 3}, "b": {1, 1}}

	diff, subjects, err := DifferenceCurves(typ, atyp)
	require.NoError(t, err)
	assert.Equal(t, []core.SubmissionID{"a", "b"}, subjects)
	assert.Equal(t, []float64{0, 1}, mat.Row(nil, 0, diff))
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 1, diff))

	_, _, err = DifferenceCurves(typ, map[core.SubmissionID][]float64{"a": {0, 1, 2}})
	assert.Error(t, err)

	_, _, err = DifferenceCurves(typ, nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestDivergence_FindsRun(t *testing.T) {
	// steps 3 and 4 differ consistently; the others are noise around zero
	diff := mat.NewDense(5, 4, []float64{
		0, 0, 0, 0,
		0.1, -0.2, 0.3, -0.4,
		1.0, 1.1, 1.2, 1.3,
		1.0, 1.1, 1.2, 1.3,
		-0.1, 0.2, -0.3, 0.4,
	})
	r, err := Divergence(diff, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 5, r.Steps)
	assert.Equal(t, 4, r.Subjects)
	assert.Equal(t, []bool{false, false, true, true, false}, r.Significant)
	assert.Equal(t, 2, r.LongestRun)
	assert.Equal(t, 3, r.RunStart)
	assert.Equal(t, 3, r.FirstSignificant)
}

// batteryFixture builds four subjects with three trials per condition
func batteryFixture() *Dataset {
	ds := &Dataset{
		Time:  map[core.TrialID][]trial.TimePoint{},
		Space: map[core.TrialID][]trial.SpacePoint{},
	}
	baseTime := []float64{0, 0.2, 0.4, 0.6, 1}
	shift := [][]float64{
		{0, 0.1, 1.0, 1.0, -0.1},
		{0, -0.2, 1.1, 1.1, 0.2},
		{0, 0.3, 1.2, 1.2, -0.3},
		{0, -0.4, 1.3, 1.3, 0.4},
	}
	baseSpace := [][]float64{{0.2, 0.6, 1.0}, {0.1, 0.4, 0.9}}

	for s := 0; s < 4; s++ {
		sub := core.SubmissionID(string(rune('a' + s)))
		for level, typ := range []trial.Type{trial.TypeTypical, trial.TypeAtypical} {
			for k := 0; k < 3; k++ {
				rec := trial.Record{SubmissionID: sub, TrialNumber: level*3 + k + 1, Type: typ}
				tr := &trial.Trial{ID: rec.TrialID(), Record: rec, Correct: true}
				ds.Trials = append(ds.Trials, tr)

				noise := math.Sin(float64(s*11 + k*3 + level*5))
				v := 10 + 3*float64(level) + float64(s) + noise
				ds.Metrics = append(ds.Metrics, trial.Metrics{
					TrialID:           tr.ID,
					SubmissionID:      sub,
					Type:              typ,
					MovementInit:      v,
					MovementDuration:  v,
					TotalRT:           v,
					InitialAngle:      v,
					DistanceTravelled: v,
					AUC:               v,
					MaxDeviation:      v,
					XFlips:            k + level,
				})

				var tp []trial.TimePoint
				for i, x := range baseTime {
					if level == 1 {
						x += shift[s][i]
					}
					tp = append(tp, trial.TimePoint{TrialID: tr.ID, Step: i + 1, X: x})
				}
				ds.Time[tr.ID] = tp

				var sp []trial.SpacePoint
				for j, x := range baseSpace[level] {
					x += 0.05 * math.Sin(float64(s*7+level*3+j*5+k))
					sp = append(sp, trial.SpacePoint{TrialID: tr.ID, Step: j + 1, X: x})
				}
				ds.Space[tr.ID] = sp
			}
		}
	}
	return ds
}

func TestBattery_Run(t *testing.T) {
	res := NewBattery(0.05).Run(batteryFixture())

	require.Len(t, res.Metrics, len(trial.AllMetrics))
	for _, mt := range res.Metrics {
		assert.NotNil(t, mt.Welch, mt.Metric)
		assert.NotNil(t, mt.ANOVA, mt.Metric)
		require.NotNil(t, mt.ANOVA)
		assert.Len(t, mt.ANOVA.Groups, 2, mt.Metric)
	}

	auc := res.Metrics[5]
	require.Equal(t, trial.MetricAUC, auc.Metric)
	require.NotNil(t, auc.Paired)
	assert.Equal(t, 4, auc.Paired.NA)
	assert.Less(t, auc.Paired.T, 0.0) // atypical is larger
	assert.NotNil(t, auc.KS)
	assert.Len(t, auc.Bimodality, 2)
	assert.Nil(t, res.Metrics[0].KS)

	// x flips have an identical subject-level difference, so the paired test is skipped
	flips := res.Metrics[7]
	assert.Nil(t, flips.Paired)
	require.Len(t, flips.Skipped, 1)
	assert.Contains(t, flips.Skipped[0], "paired")
	assert.Len(t, res.Warnings, 1)

	require.NotNil(t, res.SpaceANOVA)
	assert.Equal(t, 4, res.SpaceANOVA.Subjects)
	assert.Len(t, res.SpaceANOVA.Effects, 3)

	require.NotNil(t, res.Divergence)
	assert.Equal(t, 2, res.Divergence.LongestRun)
	assert.Equal(t, 3, res.Divergence.RunStart)
	assert.Equal(t, []core.SubmissionID{"a", "b", "c", "d"}, res.Subjects)
	rows, cols := res.DiffCurves.Dims()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 4, cols)
}

func TestBattery_RunWithoutCurves(t *testing.T) {
	ds := batteryFixture()
	ds.Time = nil
	ds.Space = nil

	res := NewBattery(0.05).Run(ds)
	assert.Nil(t, res.SpaceANOVA)
	assert.Nil(t, res.Divergence)
	assert.Nil(t, res.DiffCurves)
	assert.Len(t, res.Warnings, 3)
}
