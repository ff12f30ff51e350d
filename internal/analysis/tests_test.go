package analysis

import (
	"math"
	"testing"

	"gotrack/domain/core"
	"gotrack/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seqA = []float64{1, 2, 3, 4, 5}
	seqB = []float64{2, 4, 6, 8, 10}
)

func TestTPValue_KnownCriticalValues(t *testing.T) {
	assert.InDelta(t, 0.05, TPValue(2.228139, 10), 1e-5)
	assert.InDelta(t, 0.05, TPValue(-2.228139, 10), 1e-5)
	assert.Equal(t, 1.0, TPValue(0, 10))
	assert.Equal(t, 1.0, TPValue(3, 0))
	assert.InDelta(t, 0.05, NormalPValue(1.959964), 1e-5)
}

func TestFPValue_MatchesSquaredT(t *testing.T) {
	// F(1, df) is the square of t(df)
	assert.InDelta(t, TPValue(2.5, 12), FPValue(6.25, 1, 12), 1e-9)
	assert.Equal(t, 1.0, FPValue(2, 0, 5))
}

func TestKSPValue(t *testing.T) {
	// λ ≈ 1.358 is the 5% critical value of the Kolmogorov distribution
	assert.InDelta(t, 0.05, kolmogorovQ(1.358), 1e-3)
	assert.Equal(t, 1.0, KSPValue(0, 10, 10))
	assert.Less(t, KSPValue(1, 50, 50), 1e-6)
}

func TestWelchTTest(t *testing.T) {
	r, err := WelchTTest(seqA, seqB)
	require.NoError(t, err)

	assert.Equal(t, stats.TestWelchT, r.Kind)
	assert.InDelta(t, -1.897367, r.T, 1e-6)
	assert.InDelta(t, 5.882353, r.DF, 1e-6)
	assert.InDelta(t, TPValue(r.T, r.DF), r.PValue, 1e-12)
	assert.InDelta(t, -1.2, r.CohensD, 1e-9)
	assert.Equal(t, 3.0, r.MeanA)
	assert.Equal(t, 6.0, r.MeanB)
	assert.Equal(t, 5, r.NA)
}

func TestStudentTTest(t *testing.T) {
	r, err := StudentTTest(seqA, seqB)
	require.NoError(t, err)
	assert.InDelta(t, -1.897367, r.T, 1e-6)
	assert.Equal(t, 8.0, r.DF)
}

func TestTTest_Errors(t *testing.T) {
	_, err := WelchTTest([]float64{1}, seqB)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = WelchTTest([]float64{2, 2, 2}, []float64{3, 3})
	assert.ErrorIs(t, err, core.ErrDegenerateGroup)

	_, err = PairedTTest(seqA, seqB[:4])
	assert.Error(t, err)

	_, err = PairedTTest(seqA, []float64{2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, core.ErrDegenerateGroup)
}

func TestPairedTTest(t *testing.T) {
	r, err := PairedTTest(seqA, seqB)
	require.NoError(t, err)

	assert.Equal(t, stats.TestPairedT, r.Kind)
	assert.InDelta(t, -4.242641, r.T, 1e-6)
	assert.Equal(t, 4.0, r.DF)
	assert.InDelta(t, -1.897367, r.CohensD, 1e-6)
	assert.Less(t, r.PValue, 0.05)
}

func TestOneWayANOVA_TwoGroupsEqualsStudent(t *testing.T) {
	r, err := OneWayANOVA([]Group{{Label: "a", Values: seqA}, {Label: "b", Values: seqB}, {Label: "empty"}})
	require.NoError(t, err)

	assert.InDelta(t, 3.6, r.F, 1e-9)
	assert.Equal(t, 1.0, r.DF1)
	assert.Equal(t, 8.0, r.DF2)
	assert.InDelta(t, 22.5/72.5, r.EtaSquared, 1e-9)
	require.Len(t, r.Groups, 2)
	assert.Equal(t, "b", r.Groups[1].Label)

	student, err := StudentTTest(seqA, seqB)
	require.NoError(t, err)
	assert.InDelta(t, student.PValue, r.PValue, 1e-9)
}

func TestOneWayANOVA_Errors(t *testing.T) {
	_, err := OneWayANOVA([]Group{{Label: "a", Values: seqA}})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = OneWayANOVA([]Group{{Label: "a", Values: []float64{1, 1}}, {Label: "b", Values: []float64{2, 2}}})
	assert.ErrorIs(t, err, core.ErrDegenerateGroup)
}

func rmFixture() RMData {
	noise := func(s, i, j int) float64 { return 0.3 * math.Sin(float64(s*7+i*3+j*5)) }
	d := RMData{FactorA: "condition", FactorB: "bin", LevelsA: 2, LevelsB: 2, Cells: map[string][][]float64{}}
	for s := 0; s < 6; s++ {
		cells := grid(2, 2, 0)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				cells[i][j] = float64(s) + float64(i) + 2*float64(j) + noise(s, i, j)
			}
		}
		d.Cells[string(rune('a'+s))] = cells
	}
	return d
}

func TestRepeatedMeasuresANOVA_2x2MatchesPairedContrasts(t *testing.T) {
	d := rmFixture()
	r, err := RepeatedMeasuresANOVA(d)
	require.NoError(t, err)
	require.Len(t, r.Effects, 3)
	assert.Equal(t, 6, r.Subjects)
	assert.Equal(t, 0, r.Dropped)

	// in a 2x2 design each effect equals a squared paired t on the matching contrast
	var a0, a1, b0, b1, i0, i1 []float64
	for _, s := range []string{"a", "b", "c", "d", "e", "f"} {
		c := d.Cells[s]
		a0 = append(a0, (c[0][0]+c[0][1])/2)
		a1 = append(a1, (c[1][0]+c[1][1])/2)
		b0 = append(b0, (c[0][0]+c[1][0])/2)
		b1 = append(b1, (c[0][1]+c[1][1])/2)
		i0 = append(i0, c[0][0]-c[0][1])
		i1 = append(i1, c[1][0]-c[1][1])
	}
	for _, tc := range []struct {
		name string
		x, y []float64
	}{
		{"condition", a0, a1},
		{"bin", b0, b1},
		{"condition:bin", i0, i1},
	} {
		effect, ok := r.Effect(tc.name)
		require.True(t, ok, tc.name)
		paired, err := PairedTTest(tc.x, tc.y)
		require.NoError(t, err)
		assert.InDelta(t, paired.T*paired.T, effect.F, 1e-6, tc.name)
		assert.InDelta(t, paired.PValue, effect.PValue, 1e-6, tc.name)
		assert.Equal(t, 5.0, effect.DF2, tc.name)
	}

	bin, _ := r.Effect("bin")
	assert.Less(t, bin.PValue, 0.001)
}

func TestRepeatedMeasuresANOVA_DropsIncompleteSubjects(t *testing.T) {
	d := rmFixture()
	d.Cells["g"] = [][]float64{{1, 2}, {3, math.NaN()}}
	d.Cells["h"] = [][]float64{{1, 2}}

	r, err := RepeatedMeasuresANOVA(d)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Subjects)
	assert.Equal(t, 2, r.Dropped)
}

func TestRepeatedMeasuresANOVA_Errors(t *testing.T) {
	d := rmFixture()
	d.LevelsB = 1
	_, err := RepeatedMeasuresANOVA(d)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = RepeatedMeasuresANOVA(RMData{LevelsA: 2, LevelsB: 2, Cells: map[string][][]float64{"a": {{1, 2}, {3, 4}}}})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestKolmogorovSmirnov(t *testing.T) {
	r, err := KolmogorovSmirnov([]float64{3, 1, 2}, []float64{5, 4, 6})
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.D)
	assert.Equal(t, 3, r.NA)

	same, err := KolmogorovSmirnov(seqA, seqA)
	require.NoError(t, err)
	assert.Equal(t, 0.0, same.D)
	assert.Equal(t, 1.0, same.PValue)

	_, err = KolmogorovSmirnov(nil, seqA)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestBimodalityCoefficient(t *testing.T) {
	two := []float64{0, 0, 0, 0, 0, 10, 10, 10, 10, 10}
	r, err := BimodalityCoefficient("split", two)
	require.NoError(t, err)
	assert.InDelta(t, 0.565657, r.Coefficient, 1e-6)
	assert.InDelta(t, -2.571429, r.ExKurtosis, 1e-6)
	assert.True(t, r.Bimodal)

	r, err = BimodalityCoefficient("flat", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	assert.InDelta(t, 0.318544, r.Coefficient, 1e-6)
	assert.False(t, r.Bimodal)

	_, err = BimodalityCoefficient("short", []float64{1, 2, 3})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = BimodalityCoefficient("flatline", []float64{4, 4, 4, 4, 4})
	assert.ErrorIs(t, err, core.ErrDegenerateGroup)
}

func TestWithinSubjectZ(t *testing.T) {
	z := WithinSubjectZ(map[core.SubmissionID][]float64{
		"s1": {1, 2, 3},
		"s2": {5, 5},
		"s3": {7},
	})
	require.Len(t, z, 1)
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, z["s1"], 1e-12)
}
