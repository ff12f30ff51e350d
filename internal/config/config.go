package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gotrack/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig
	Preprocess PreprocessConfig
	Normalize  NormalizeConfig
	Analysis   AnalysisConfig
	Bootstrap  BootstrapConfig
	Database   DatabaseConfig
	Output     OutputConfig
}

// DataConfig holds input file locations
type DataConfig struct {
	TrialsFile       string
	ParticipantsFile string
}

// PreprocessConfig controls trial cleaning
type PreprocessConfig struct {
	OutlierZ             float64
	OutlierMaxIterations int
	OutlierScope         string // "global" or "subject"
	MinAccuracy          float64
}

// NormalizeConfig controls trajectory resampling
type NormalizeConfig struct {
	TimeSteps int
	SpaceBins int
	BinWidth  time.Duration
}

// AnalysisConfig holds hypothesis-test settings
type AnalysisConfig struct {
	Alpha float64
}

// BootstrapConfig holds simulation settings
type BootstrapConfig struct {
	Enabled bool
	Draws   int
	Workers int
	Seed    int64
}

// DatabaseConfig holds result-store settings; an empty URL disables persistence
type DatabaseConfig struct {
	URL    string
	Driver string
}

// OutputConfig holds report destinations
type OutputConfig struct {
	ReportFile string
}

// Enabled reports whether results should be persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:       loadDataConfig(),
		Preprocess: loadPreprocessConfig(),
		Normalize:  loadNormalizeConfig(),
		Analysis:   loadAnalysisConfig(),
		Bootstrap:  loadBootstrapConfig(),
		Database:   loadDatabaseConfig(),
		Output:     loadOutputConfig(),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Preprocess: PreprocessConfig{
			OutlierZ:             3.0,
			OutlierMaxIterations: 50,
			OutlierScope:         "global",
		},
		Normalize: NormalizeConfig{
			TimeSteps: 101,
			SpaceBins: 3,
			BinWidth:  500 * time.Millisecond,
		},
		Analysis: AnalysisConfig{Alpha: 0.05},
		Bootstrap: BootstrapConfig{
			Enabled: true,
			Draws:   1000,
			Workers: runtime.NumCPU(),
			Seed:    42,
		},
		Database: DatabaseConfig{Driver: "sqlite"},
	}
}

func loadDataConfig() DataConfig {
	return DataConfig{
		TrialsFile:       getEnvOrDefault("TRIALS_FILE", ""),
		ParticipantsFile: getEnvOrDefault("PARTICIPANTS_FILE", ""),
	}
}

func loadPreprocessConfig() PreprocessConfig {
	d := Default().Preprocess
	return PreprocessConfig{
		OutlierZ:             getEnvFloatOrDefault("OUTLIER_Z", d.OutlierZ),
		OutlierMaxIterations: getEnvIntOrDefault("OUTLIER_MAX_ITERATIONS", d.OutlierMaxIterations),
		OutlierScope:         strings.ToLower(getEnvOrDefault("OUTLIER_SCOPE", d.OutlierScope)),
		MinAccuracy:          getEnvFloatOrDefault("MIN_ACCURACY", d.MinAccuracy),
	}
}

func loadNormalizeConfig() NormalizeConfig {
	d := Default().Normalize
	return NormalizeConfig{
		TimeSteps: getEnvIntOrDefault("TIME_STEPS", d.TimeSteps),
		SpaceBins: getEnvIntOrDefault("SPACE_BINS", d.SpaceBins),
		BinWidth:  getEnvDurationOrDefault("SPACE_BIN_WIDTH", d.BinWidth),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Alpha: getEnvFloatOrDefault("ALPHA", Default().Analysis.Alpha),
	}
}

func loadBootstrapConfig() BootstrapConfig {
	d := Default().Bootstrap
	return BootstrapConfig{
		Enabled: getEnvBoolOrDefault("BOOTSTRAP_ENABLED", d.Enabled),
		Draws:   getEnvIntOrDefault("BOOTSTRAP_DRAWS", d.Draws),
		Workers: getEnvIntOrDefault("BOOTSTRAP_WORKERS", d.Workers),
		Seed:    int64(getEnvIntOrDefault("SEED", int(d.Seed))),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := getEnvOrDefault("DATABASE_URL", "")
	driver := getEnvOrDefault("DB_DRIVER", "")
	if driver == "" {
		driver = InferDriver(url)
	}
	return DatabaseConfig{URL: url, Driver: driver}
}

func loadOutputConfig() OutputConfig {
	return OutputConfig{
		ReportFile: getEnvOrDefault("REPORT_FILE", ""),
	}
}

// InferDriver picks the sql driver from a connection URL
func InferDriver(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

// Validate checks value ranges; it does not require the data file so that
// subcommands which generate data can share the configuration.
func Validate(config *Config) error {
	p := config.Preprocess
	if p.OutlierZ <= 0 {
		return errors.ConfigInvalid("OUTLIER_Z must be positive")
	}
	if p.OutlierMaxIterations < 1 {
		return errors.ConfigInvalid("OUTLIER_MAX_ITERATIONS must be at least 1")
	}
	if p.OutlierScope != "global" && p.OutlierScope != "subject" {
		return errors.ConfigInvalid("OUTLIER_SCOPE must be 'global' or 'subject'")
	}
	if p.MinAccuracy < 0 || p.MinAccuracy > 1 {
		return errors.ConfigInvalid("MIN_ACCURACY must be within [0,1]")
	}
	if config.Normalize.TimeSteps < 2 {
		return errors.ConfigInvalid("TIME_STEPS must be at least 2")
	}
	if config.Normalize.SpaceBins < 1 || config.Normalize.BinWidth <= 0 {
		return errors.ConfigInvalid("SPACE_BINS and SPACE_BIN_WIDTH must be positive")
	}
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be within (0,1)")
	}
	if config.Bootstrap.Enabled && config.Bootstrap.Draws < 1 {
		return errors.ConfigInvalid("BOOTSTRAP_DRAWS must be at least 1")
	}
	if config.Bootstrap.Workers < 1 {
		return errors.ConfigInvalid("BOOTSTRAP_WORKERS must be at least 1")
	}
	if config.Database.Driver != "sqlite" && config.Database.Driver != "postgres" {
		return errors.ConfigInvalid("DB_DRIVER must be 'sqlite' or 'postgres'")
	}
	return nil
}

// Settings flattens the fields that influence results, for run fingerprints
func (c *Config) Settings() map[string]interface{} {
	return map[string]interface{}{
		"outlier_z":       c.Preprocess.OutlierZ,
		"outlier_max_it":  c.Preprocess.OutlierMaxIterations,
		"outlier_scope":   c.Preprocess.OutlierScope,
		"min_accuracy":    c.Preprocess.MinAccuracy,
		"time_steps":      c.Normalize.TimeSteps,
		"space_bins":      c.Normalize.SpaceBins,
		"space_bin_ms":    c.Normalize.BinWidth.Milliseconds(),
		"alpha":           c.Analysis.Alpha,
		"bootstrap":       c.Bootstrap.Enabled,
		"bootstrap_draws": c.Bootstrap.Draws,
		"seed":            c.Bootstrap.Seed,
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("750ms") or a bare number of milliseconds
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
