package testkit

import (
	"context"
	"math/rand"

	"gotrack/domain/trial"
	"gotrack/ports"
)

// TestKit provides deterministic randomness and synthetic data for tests and demos
type TestKit struct {
	rng *RNGAdapter
}

// NewTestKit creates a new test kit instance
func NewTestKit() (*TestKit, error) {
	return &TestKit{rng: &RNGAdapter{}}, nil
}

// RNGAdapter returns an RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// SyntheticTrials generates a full experiment with the given configuration
func (t *TestKit) SyntheticTrials(config TrialGeneratorConfig) ([]trial.Record, []trial.Participant) {
	return NewTrialGenerator(config).Generate()
}

// RNGAdapter implements the RNGPort interface with math/rand sources
type RNGAdapter struct{}

// SeededStream creates a deterministic random number generator for a named operation
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a specific stage/unit
func (r *RNGAdapter) Stream(ctx context.Context, runID, stageName, unitKey string, baseSeed int64) (*rand.Rand, error) {
	// identical run/stage/unit combinations always yield the same sequence
	seed := baseSeed
	if runID != "" {
		seed = int64(hashString(runID)) + seed
	}
	if stageName != "" {
		seed = int64(hashString(stageName)) + seed
	}
	if unitKey != "" {
		seed = int64(hashString(unitKey)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
