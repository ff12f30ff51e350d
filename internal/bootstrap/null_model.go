// Package bootstrap estimates how long a divergence run can get by chance by simulating
// difference curves under a parametric null.
package bootstrap

import (
	"fmt"
	"math"

	"gotrack/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MaxPhi bounds the autocorrelation of the null process
const MaxPhi = 0.99

// NullModel is a zero-mean AR(1) process with a step-dependent spread fitted to the
// observed difference curves
type NullModel struct {
	Steps    int
	Subjects int
	SD       []float64 // per-step standard deviation across subjects
	Phi      float64   // pooled lag-1 autocorrelation
}

// EstimateNull fits the null model to a steps x subjects matrix of difference curves.
// Each column is standardized per step; φ is the pooled lag-1 correlation of those
// residuals, clamped to [0, MaxPhi].
func EstimateNull(diff *mat.Dense) (*NullModel, error) {
	steps, subjects := diff.Dims()
	if subjects < 2 {
		return nil, core.NewInsufficientDataError("bootstrap subjects", subjects, 2)
	}
	if steps < 2 {
		return nil, core.NewInsufficientDataError("bootstrap steps", steps, 2)
	}

	model := &NullModel{Steps: steps, Subjects: subjects, SD: make([]float64, steps)}
	means := make([]float64, steps)
	informative := 0
	for t := 0; t < steps; t++ {
		row := mat.Row(nil, t, diff)
		means[t], model.SD[t] = stat.MeanStdDev(row, nil)
		if model.SD[t] > 0 {
			informative++
		}
	}
	if informative == 0 {
		return nil, fmt.Errorf("%w: difference curves have no spread", core.ErrDegenerateGroup)
	}

	var num, den float64
	for s := 0; s < subjects; s++ {
		prev, havePrev := 0.0, false
		for t := 0; t < steps; t++ {
			if model.SD[t] == 0 {
				havePrev = false
				continue
			}
			r := (diff.At(t, s) - means[t]) / model.SD[t]
			if havePrev {
				num += r * prev
				den += prev * prev
			}
			prev, havePrev = r, true
		}
	}
	if den > 0 {
		model.Phi = num / den
	}
	model.Phi = math.Max(0, math.Min(MaxPhi, model.Phi))
	return model, nil
}

// Simulate fills dst (steps x subjects) with one draw from the null
func (m *NullModel) Simulate(rng interface{ NormFloat64() float64 }, dst *mat.Dense) {
	innovation := math.Sqrt(1 - m.Phi*m.Phi)
	for s := 0; s < m.Subjects; s++ {
		z := rng.NormFloat64()
		for t := 0; t < m.Steps; t++ {
			if t > 0 {
				z = m.Phi*z + innovation*rng.NormFloat64()
			}
			dst.Set(t, s, m.SD[t]*z)
		}
	}
}
