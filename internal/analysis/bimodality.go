package analysis

import (
	"fmt"
	"math"

	"gotrack/domain/core"
	"gotrack/domain/stats"

	gstat "gonum.org/v1/gonum/stat"
)

// BimodalityCoefficient computes BC = (g1² + 1) / (g2 + 3(n-1)²/((n-2)(n-3))) from the
// sample skewness g1 and sample excess kurtosis g2. Values above 5/9 (the BC of a uniform
// distribution) suggest bimodality.
func BimodalityCoefficient(label string, x []float64) (*stats.BimodalityResult, error) {
	if err := needN(label, x, 4); err != nil {
		return nil, err
	}

	skew := gstat.Skew(x, nil)
	kurt := gstat.ExKurtosis(x, nil)
	if math.IsNaN(skew) || math.IsNaN(kurt) || math.IsInf(skew, 0) {
		return nil, fmt.Errorf("%w: %s has no spread", core.ErrDegenerateGroup, label)
	}

	n := float64(len(x))
	bc := (skew*skew + 1) / (kurt + 3*(n-1)*(n-1)/((n-2)*(n-3)))

	return &stats.BimodalityResult{
		Label:       label,
		N:           len(x),
		Skewness:    skew,
		ExKurtosis:  kurt,
		Coefficient: bc,
		Bimodal:     bc > stats.BimodalityThreshold,
	}, nil
}

// WithinSubjectZ standardizes values per subject using that subject's mean and sample SD.
// Subjects with fewer than two values or no spread are left out of the result.
func WithinSubjectZ(values map[core.SubmissionID][]float64) map[core.SubmissionID][]float64 {
	out := make(map[core.SubmissionID][]float64, len(values))
	for sub, xs := range values {
		if len(xs) < 2 {
			continue
		}
		mean, sd := gstat.MeanStdDev(xs, nil)
		if sd == 0 {
			continue
		}
		zs := make([]float64, len(xs))
		for i, v := range xs {
			zs[i] = (v - mean) / sd
		}
		out[sub] = zs
	}
	return out
}
