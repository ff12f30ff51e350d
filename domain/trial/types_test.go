package trial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeTypical, ParseType(" Typical "))
	assert.Equal(t, TypeAtypical, ParseType("ATYPICAL"))
	assert.Equal(t, Type("filler"), ParseType("filler"))
	assert.True(t, TypeAtypical.IsExperimental())
	assert.False(t, Type("practice").IsExperimental())
}

func TestParseHandedness(t *testing.T) {
	assert.Equal(t, HandLeft, ParseHandedness("Left-handed"))
	assert.Equal(t, HandRight, ParseHandedness("r"))
	assert.Equal(t, HandUnknown, ParseHandedness("both"))
	assert.Equal(t, "unknown", HandUnknown.Label())
}

func TestRecordDirectionAndCorrect(t *testing.T) {
	r := Record{
		Answer:          "mammal",
		CorrectCategory: "Mammal",
		LeftCategory:    "mammal",
		RightCategory:   "fish",
	}
	assert.Equal(t, DirLeft, r.Direction())
	assert.True(t, r.Correct())

	r.Answer = "fish"
	r.LeftCategory = "fish"
	r.RightCategory = "mammal"
	assert.Equal(t, DirRight, r.Direction())
	assert.False(t, r.Correct())
}

func TestMetricsValue(t *testing.T) {
	m := Metrics{AUC: 1.5, XFlips: 3}
	for _, name := range AllMetrics {
		_, ok := m.Value(name)
		assert.True(t, ok, "metric %s should resolve", name)
	}
	v, _ := m.Value(MetricXFlips)
	assert.Equal(t, 3.0, v)
	_, ok := m.Value("bogus")
	assert.False(t, ok)
}

func TestTrialAccessors(t *testing.T) {
	tr := &Trial{
		Record: Record{SubmissionID: "9", Type: TypeTypical},
		Samples: []Sample{
			{Time: 0}, {Time: 40, X: 1}, {Time: 900, X: 2, Y: 3},
		},
	}
	assert.Equal(t, 900.0, tr.TotalRT())
	assert.Equal(t, 2.0, tr.End().X)
	assert.Equal(t, TypeTypical, tr.Type())
	assert.EqualValues(t, "9", tr.Submission())
}

func TestMetricsNonFinite(t *testing.T) {
	_, bad := Metrics{TotalRT: 900, AUC: -12}.NonFinite()
	assert.False(t, bad)

	name, bad := Metrics{TotalRT: 900, MaxDeviation: math.Inf(1), AUC: math.NaN()}.NonFinite()
	assert.True(t, bad)
	assert.Equal(t, MetricAUC, name) // first in report order
}
