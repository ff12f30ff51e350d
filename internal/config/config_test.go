package config

import (
	"testing"
	"time"

	apperrors "gotrack/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"OUTLIER_Z", "TIME_STEPS", "ALPHA", "DATABASE_URL", "DB_DRIVER", "BOOTSTRAP_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Preprocess.OutlierZ)
	assert.Equal(t, 101, cfg.Normalize.TimeSteps)
	assert.Equal(t, 3, cfg.Normalize.SpaceBins)
	assert.Equal(t, 500*time.Millisecond, cfg.Normalize.BinWidth)
	assert.Equal(t, 0.05, cfg.Analysis.Alpha)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TRIALS_FILE", "trials.csv")
	t.Setenv("OUTLIER_Z", "2.5")
	t.Setenv("OUTLIER_SCOPE", "Subject")
	t.Setenv("SPACE_BIN_WIDTH", "400")
	t.Setenv("BOOTSTRAP_DRAWS", "250")
	t.Setenv("DATABASE_URL", "postgres://localhost/mt")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "trials.csv", cfg.Data.TrialsFile)
	assert.Equal(t, 2.5, cfg.Preprocess.OutlierZ)
	assert.Equal(t, "subject", cfg.Preprocess.OutlierScope)
	assert.Equal(t, 400*time.Millisecond, cfg.Normalize.BinWidth)
	assert.Equal(t, 250, cfg.Bootstrap.Draws)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.Enabled())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative z", func(c *Config) { c.Preprocess.OutlierZ = -1 }},
		{"bad scope", func(c *Config) { c.Preprocess.OutlierScope = "session" }},
		{"one step", func(c *Config) { c.Normalize.TimeSteps = 1 }},
		{"alpha one", func(c *Config) { c.Analysis.Alpha = 1 }},
		{"no draws", func(c *Config) { c.Bootstrap.Draws = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}

func TestSettingsStable(t *testing.T) {
	a := Default().Settings()
	b := Default().Settings()
	assert.Equal(t, a, b)
	assert.Contains(t, a, "alpha")
}
