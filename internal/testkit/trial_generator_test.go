package testkit

import (
	"context"
	"testing"

	"gotrack/domain/trial"
	"gotrack/internal/kinematics"
	"gotrack/internal/preprocess"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() TrialGeneratorConfig {
	cfg := DefaultTrialConfig()
	cfg.Subjects = 4
	cfg.TrialsPerCondition = 6
	return cfg
}

func TestTrialGenerator_Deterministic(t *testing.T) {
	a, pa := NewTrialGenerator(smallConfig()).Generate()
	b, pb := NewTrialGenerator(smallConfig()).Generate()

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("records differ for the same seed (-first +second):\n%s", diff)
	}
	assert.Equal(t, pa, pb)

	other := smallConfig()
	other.Seed = 7
	c, _ := NewTrialGenerator(other).Generate()
	assert.NotEqual(t, a[0].Times, c[0].Times)
}

func TestTrialGenerator_Layout(t *testing.T) {
	cfg := smallConfig()
	records, participants := NewTrialGenerator(cfg).Generate()

	require.Len(t, records, cfg.Subjects*cfg.TrialsPerCondition*2)
	require.Len(t, participants, cfg.Subjects)

	counts := map[trial.Type]int{}
	for _, r := range records {
		counts[r.Type]++
		require.Len(t, r.X, len(r.Times))
		require.Len(t, r.Y, len(r.Times))
		for i := 1; i < len(r.Times); i++ {
			require.GreaterOrEqual(t, r.Times[i], r.Times[i-1])
		}
		assert.Equal(t, startX, r.X[0])
		assert.Equal(t, startY, r.Y[0])
		assert.Equal(t, optionY, r.Y[len(r.Y)-1])
		assert.Contains(t, []string{r.LeftCategory, r.RightCategory}, r.CorrectCategory)
		assert.Empty(t, r.Handedness)
	}
	assert.Equal(t, cfg.Subjects*cfg.TrialsPerCondition, counts[trial.TypeTypical])
	assert.Equal(t, cfg.Subjects*cfg.TrialsPerCondition, counts[trial.TypeAtypical])
}

func TestTrialGenerator_AtypicalTrialsCurveMore(t *testing.T) {
	cfg := smallConfig()
	cfg.ErrorRate = 0
	records, _ := NewTrialGenerator(cfg).Generate()

	sums := map[trial.Type]float64{}
	for _, r := range records {
		tr, err := preprocess.Explode(r)
		require.NoError(t, err)
		m, err := kinematics.Compute(tr)
		require.NoError(t, err)
		sums[r.Type] += m.AUC
		assert.Greater(t, m.AUC, 0.0)
	}
	assert.Greater(t, sums[trial.TypeAtypical], 2*sums[trial.TypeTypical])
}

func TestRNGAdapter_Stream(t *testing.T) {
	kit, err := NewTestKit()
	require.NoError(t, err)
	rng := kit.RNGAdapter()
	ctx := context.Background()

	first, err := rng.Stream(ctx, "run-1", "bootstrap", "draw-3", 42)
	require.NoError(t, err)
	again, err := rng.Stream(ctx, "run-1", "bootstrap", "draw-3", 42)
	require.NoError(t, err)
	other, err := rng.Stream(ctx, "run-1", "bootstrap", "draw-4", 42)
	require.NoError(t, err)

	v := first.Int63()
	assert.Equal(t, v, again.Int63())
	assert.NotEqual(t, v, other.Int63())

	seeded, err := rng.SeededStream(ctx, "generate", 42)
	require.NoError(t, err)
	assert.NotNil(t, seeded)
}
