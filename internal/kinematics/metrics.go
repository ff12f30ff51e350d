// Package kinematics derives per-trial movement measures from exploded samples.
package kinematics

import (
	"math"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// Compute derives all metrics of one trial. Samples are expected in the pooled frame
// produced by preprocess.Explode (start at origin, y up, chosen side at positive x).
func Compute(t *trial.Trial) (trial.Metrics, error) {
	if len(t.Samples) < 2 {
		return trial.Metrics{}, core.NewTraceError(t.ID, "need at least two samples for metrics")
	}

	m := trial.Metrics{
		TrialID:      t.ID,
		SubmissionID: t.Submission(),
		Type:         t.Type(),
		Handedness:   t.Record.Handedness,
	}

	onset := movementOnset(t.Samples)
	start := t.Start()

	m.TotalRT = t.End().Time - start.Time
	if onset > 0 {
		m.MovementInit = t.Samples[onset].Time - start.Time
		m.InitialAngle = initialAngle(start, t.Samples[onset])
	} else {
		m.MovementInit = m.TotalRT
	}
	m.MovementDuration = m.TotalRT - m.MovementInit
	m.DistanceTravelled = DistanceTravelled(t.Samples)
	m.AUC, m.MaxDeviation = AreaAndDeviation(t.Samples)
	m.XFlips = XFlips(t.Samples)

	if name, bad := m.NonFinite(); bad {
		return trial.Metrics{}, core.NewTraceError(t.ID, string(name)+" is not finite")
	}
	return m, nil
}

// movementOnset returns the index of the first sample that left the start position,
// or 0 when the cursor never moved
func movementOnset(samples []trial.Sample) int {
	s0 := samples[0]
	for i := 1; i < len(samples); i++ {
		if samples[i].X != s0.X || samples[i].Y != s0.Y {
			return i
		}
	}
	return 0
}

// initialAngle is the angle in degrees between straight up and the first movement,
// positive toward the chosen side
func initialAngle(from, to trial.Sample) float64 {
	return math.Atan2(to.X-from.X, to.Y-from.Y) * 180 / math.Pi
}

// DistanceTravelled is the length of the polyline through all samples
func DistanceTravelled(samples []trial.Sample) float64 {
	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += math.Hypot(samples[i].X-samples[i-1].X, samples[i].Y-samples[i-1].Y)
	}
	return total
}

// AreaAndDeviation measures the trajectory against the straight chord from its first to
// its last sample. The path is rotated into the chord frame (chord along +u, v the signed
// perpendicular distance, positive to the left of the chord, i.e. toward the unchosen
// side for rightward responses). AUC is the trapezoid integral of v over u; the maximum
// deviation is the v of largest magnitude, keeping its sign.
func AreaAndDeviation(samples []trial.Sample) (auc, maxDev float64) {
	first, last := samples[0], samples[len(samples)-1]
	dx, dy := last.X-first.X, last.Y-first.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, 0
	}
	cos, sin := dx/length, dy/length

	prevU, prevV := 0.0, 0.0
	for i := 1; i < len(samples); i++ {
		px, py := samples[i].X-first.X, samples[i].Y-first.Y
		u := px*cos + py*sin
		v := py*cos - px*sin

		auc += (u - prevU) * (v + prevV) / 2
		if math.Abs(v) > math.Abs(maxDev) {
			maxDev = v
		}
		prevU, prevV = u, v
	}
	return auc, maxDev
}

// XFlips counts reversals of horizontal movement direction, ignoring pauses
func XFlips(samples []trial.Sample) int {
	flips := 0
	lastSign := 0
	for i := 1; i < len(samples); i++ {
		d := samples[i].X - samples[i-1].X
		sign := 0
		if d > 0 {
			sign = 1
		} else if d < 0 {
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if lastSign != 0 && sign != lastSign {
			flips++
		}
		lastSign = sign
	}
	return flips
}

// ComputeAll derives metrics for every trial, skipping trials that fail
func ComputeAll(trials []*trial.Trial) ([]trial.Metrics, map[core.TrialID]error) {
	out := make([]trial.Metrics, 0, len(trials))
	failed := make(map[core.TrialID]error)
	for _, t := range trials {
		m, err := Compute(t)
		if err != nil {
			failed[t.ID] = err
			continue
		}
		out = append(out, m)
	}
	return out, failed
}
