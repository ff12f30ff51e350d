package kinematics

import (
	"math"
	"testing"

	"gotrack/domain/core"
	"gotrack/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTrial(pts ...[3]float64) *trial.Trial {
	rec := trial.Record{SubmissionID: "s1", TrialNumber: 4, Type: trial.TypeAtypical, Handedness: trial.HandRight}
	tr := &trial.Trial{ID: rec.TrialID(), Record: rec, Direction: trial.DirRight, Correct: true}
	for _, p := range pts {
		tr.Samples = append(tr.Samples, trial.Sample{TrialID: tr.ID, Time: p[0], X: p[1], Y: p[2]})
	}
	return tr
}

func TestCompute_StraightPath(t *testing.T) {
	tr := makeTrial(
		[3]float64{0, 0, 0},
		[3]float64{100, 0, 0},
		[3]float64{200, 30, 40},
		[3]float64{300, 60, 80},
	)

	m, err := Compute(tr)
	require.NoError(t, err)

	assert.Equal(t, core.TrialID("s1/4"), m.TrialID)
	assert.Equal(t, core.SubmissionID("s1"), m.SubmissionID)
	assert.Equal(t, trial.TypeAtypical, m.Type)
	assert.Equal(t, trial.HandRight, m.Handedness)
	assert.Equal(t, 300.0, m.TotalRT)
	assert.Equal(t, 200.0, m.MovementInit)
	assert.Equal(t, 100.0, m.MovementDuration)
	assert.InDelta(t, math.Atan2(30, 40)*180/math.Pi, m.InitialAngle, 1e-9)
	assert.InDelta(t, 100.0, m.DistanceTravelled, 1e-9)
	assert.InDelta(t, 0.0, m.AUC, 1e-9)
	assert.InDelta(t, 0.0, m.MaxDeviation, 1e-9)
	assert.Equal(t, 0, m.XFlips)
}

func TestCompute_NeverMoved(t *testing.T) {
	m, err := Compute(makeTrial([3]float64{0, 0, 0}, [3]float64{500, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, 500.0, m.MovementInit)
	assert.Equal(t, 0.0, m.MovementDuration)
	assert.Equal(t, 0.0, m.InitialAngle)
	assert.Equal(t, 0.0, m.AUC)
}

func TestCompute_TooShort(t *testing.T) {
	_, err := Compute(makeTrial([3]float64{0, 0, 0}))
	assert.ErrorIs(t, err, core.ErrInvalidTrace)
}

func TestCompute_RejectsNonFiniteResult(t *testing.T) {
	tr := makeTrial(
		[3]float64{0, 0, 0},
		[3]float64{math.NaN(), 1, 1},
		[3]float64{20, 2, 2},
		[3]float64{30, 3, 3},
	)
	_, err := Compute(tr)
	assert.ErrorIs(t, err, core.ErrInvalidTrace)
	assert.Contains(t, err.Error(), "movement_init")
}

func TestAreaAndDeviation_BowTowardUnchosenSide(t *testing.T) {
	// chord runs straight up to (0,10); path detours to x=-2, which is left of the chord
	samples := []trial.Sample{{X: 0, Y: 0}, {X: -2, Y: 5}, {X: 0, Y: 10}}
	auc, dev := AreaAndDeviation(samples)
	assert.InDelta(t, 10.0, auc, 1e-9) // triangle with base 10 and height 2
	assert.InDelta(t, 2.0, dev, 1e-9)

	mirrored := []trial.Sample{{X: 0, Y: 0}, {X: 2, Y: 5}, {X: 0, Y: 10}}
	auc, dev = AreaAndDeviation(mirrored)
	assert.InDelta(t, -10.0, auc, 1e-9)
	assert.InDelta(t, -2.0, dev, 1e-9)
}

func TestAreaAndDeviation_ZeroChord(t *testing.T) {
	auc, dev := AreaAndDeviation([]trial.Sample{{X: 1, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 1}})
	assert.Equal(t, 0.0, auc)
	assert.Equal(t, 0.0, dev)
}

func TestXFlips(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want int
	}{
		{"monotone", []float64{0, 1, 2, 3}, 0},
		{"one reversal", []float64{0, 2, 1}, 1},
		{"pauses ignored", []float64{0, 1, 1, 1, 2, 1, 1, 3}, 2},
		{"stationary", []float64{0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]trial.Sample, len(tt.xs))
			for i, x := range tt.xs {
				samples[i].X = x
			}
			assert.Equal(t, tt.want, XFlips(samples))
		})
	}
}

func TestComputeAll_SeparatesFailures(t *testing.T) {
	good := makeTrial([3]float64{0, 0, 0}, [3]float64{100, 1, 1})
	bad := makeTrial([3]float64{0, 0, 0})
	bad.ID = "s1/5"

	out, failed := ComputeAll([]*trial.Trial{good, bad})
	require.Len(t, out, 1)
	assert.Equal(t, good.ID, out[0].TrialID)
	assert.Contains(t, failed, core.TrialID("s1/5"))
}
