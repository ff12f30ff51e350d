package normalize

import (
	"gotrack/domain/core"
	"gotrack/domain/trial"

	"gonum.org/v1/gonum/interp"
)

// DefaultTimeSteps is the conventional resolution of time-normalized trajectories
const DefaultTimeSteps = 101

// TimeNormalize resamples a trial to steps equally spaced points between its first and
// last sample by linear interpolation of x(t) and y(t). Steps are numbered from 1.
func TimeNormalize(t *trial.Trial, steps int) ([]trial.TimePoint, error) {
	if steps < 2 {
		steps = DefaultTimeSteps
	}

	xf, yf, err := fitTrajectory(t)
	if err != nil {
		return nil, err
	}

	t0 := t.Start().Time
	span := t.End().Time - t0
	points := make([]trial.TimePoint, steps)
	for s := 0; s < steps; s++ {
		at := t0 + span*float64(s)/float64(steps-1)
		points[s] = trial.TimePoint{
			TrialID: t.ID,
			Step:    s + 1,
			X:       xf.Predict(at),
			Y:       yf.Predict(at),
		}
	}
	return points, nil
}

// fitTrajectory builds x(t) and y(t) interpolators for a trial
func fitTrajectory(t *trial.Trial) (*interp.PiecewiseLinear, *interp.PiecewiseLinear, error) {
	n := len(t.Samples)
	if n < 2 {
		return nil, nil, core.NewTraceError(t.ID, "need at least two samples to interpolate")
	}

	ts := make([]float64, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, s := range t.Samples {
		ts[i], xs[i], ys[i] = s.Time, s.X, s.Y
	}

	var xf, yf interp.PiecewiseLinear
	if err := xf.Fit(ts, xs); err != nil {
		return nil, nil, core.NewTraceError(t.ID, err.Error())
	}
	if err := yf.Fit(ts, ys); err != nil {
		return nil, nil, core.NewTraceError(t.ID, err.Error())
	}
	return &xf, &yf, nil
}
