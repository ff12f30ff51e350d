package normalize

import (
	"time"

	"gotrack/domain/trial"
)

// SpaceOptions controls space normalization
type SpaceOptions struct {
	Bins     int
	BinWidth time.Duration
}

// DefaultSpaceOptions returns three 500ms bins
func DefaultSpaceOptions() SpaceOptions {
	return SpaceOptions{Bins: 3, BinWidth: 500 * time.Millisecond}
}

// SpaceNormalize unit-scales a trajectory so the start maps to (0,0) and the end to (1,1),
// then averages position inside consecutive time bins. Bins that begin after the trial
// ended are padded with the terminal position; an empty bin inside a still-running trial
// takes the interpolated position at the bin centre. An axis without extent maps to 0.
func SpaceNormalize(t *trial.Trial, opts SpaceOptions) ([]trial.SpacePoint, error) {
	if opts.Bins < 1 || opts.BinWidth <= 0 {
		opts = DefaultSpaceOptions()
	}

	xf, yf, err := fitTrajectory(t)
	if err != nil {
		return nil, err
	}

	start, end := t.Start(), t.End()
	scaleX := unitScaler(start.X, end.X)
	scaleY := unitScaler(start.Y, end.Y)

	width := float64(opts.BinWidth) / float64(time.Millisecond)
	points := make([]trial.SpacePoint, opts.Bins)
	for b := 0; b < opts.Bins; b++ {
		lo := start.Time + float64(b)*width
		hi := lo + width

		var sumX, sumY float64
		n := 0
		for _, s := range t.Samples {
			if s.Time >= lo && s.Time < hi {
				sumX += s.X
				sumY += s.Y
				n++
			}
		}

		var x, y float64
		switch {
		case n > 0:
			x, y = sumX/float64(n), sumY/float64(n)
		case lo > end.Time:
			x, y = end.X, end.Y
		default:
			mid := lo + width/2
			if mid > end.Time {
				mid = end.Time
			}
			x, y = xf.Predict(mid), yf.Predict(mid)
		}

		points[b] = trial.SpacePoint{
			TrialID: t.ID,
			Step:    b + 1,
			X:       scaleX(x),
			Y:       scaleY(y),
		}
	}
	return points, nil
}

func unitScaler(from, to float64) func(float64) float64 {
	extent := to - from
	if extent == 0 {
		return func(float64) float64 { return 0 }
	}
	return func(v float64) float64 { return (v - from) / extent }
}
