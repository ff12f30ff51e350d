package preprocess

import (
	"fmt"
	"math"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// Explode validates a record's parallel sequences and turns them into samples.
//
// Time is re-based to the first sample and position to the start point. Screen y grows
// downward, so y is sign-flipped for every trial; x is mirrored for left-direction trials
// so responses to both sides pool toward positive x. Consecutive samples sharing a
// timestamp are collapsed to the first one.
func Explode(rec trial.Record) (*trial.Trial, error) {
	id := rec.TrialID()
	n := len(rec.Times)
	if n == 0 {
		return nil, core.NewTraceError(id, "empty trace")
	}
	if len(rec.X) != n || len(rec.Y) != n {
		return nil, core.NewTraceError(id, "times, x and y differ in length")
	}

	dir := rec.Direction()
	xSign := 1.0
	if dir == trial.DirLeft {
		xSign = -1.0
	}

	t0, x0, y0 := rec.Times[0], rec.X[0], rec.Y[0]
	samples := make([]trial.Sample, 0, n)
	for i := 0; i < n; i++ {
		if !finite(rec.Times[i]) || !finite(rec.X[i]) || !finite(rec.Y[i]) {
			return nil, core.NewTraceError(id, fmt.Sprintf("non-finite value at sample %d", i))
		}
		if i > 0 {
			if rec.Times[i] < rec.Times[i-1] {
				return nil, core.NewTraceError(id, "timestamps decrease")
			}
			if rec.Times[i] == rec.Times[i-1] {
				continue
			}
		}
		samples = append(samples, trial.Sample{
			TrialID: id,
			Time:    rec.Times[i] - t0,
			X:       xSign * (rec.X[i] - x0),
			Y:       -(rec.Y[i] - y0),
		})
	}

	return &trial.Trial{
		ID:        id,
		Record:    rec,
		Direction: dir,
		Correct:   rec.Correct(),
		Samples:   samples,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
