package trial

import (
	"math"

	"gotrack/domain/core"
)

// TimePoint is one step of a time-normalized trajectory
type TimePoint struct {
	TrialID core.TrialID `json:"trial_id"`
	Step    int          `json:"step"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
}

// SpacePoint is one time bin of a space-normalized trajectory
type SpacePoint struct {
	TrialID core.TrialID `json:"trial_id"`
	Step    int          `json:"step"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
}

// Metrics are the kinematic measures derived from one trial
type Metrics struct {
	TrialID           core.TrialID      `json:"trial_id" db:"trial_id"`
	SubmissionID      core.SubmissionID `json:"submission_id" db:"submission_id"`
	Type              Type              `json:"trial_type" db:"trial_type"`
	Handedness        Handedness        `json:"handedness" db:"handedness"`
	MovementInit      float64           `json:"movement_init" db:"movement_init"`
	MovementDuration  float64           `json:"movement_duration" db:"movement_duration"`
	TotalRT           float64           `json:"total_rt" db:"total_rt"`
	InitialAngle      float64           `json:"initial_angle" db:"initial_angle"`
	DistanceTravelled float64           `json:"distance_travelled" db:"distance_travelled"`
	AUC               float64           `json:"auc" db:"auc"`
	MaxDeviation      float64           `json:"max_deviation" db:"max_deviation"`
	XFlips            int               `json:"x_flips" db:"x_flips"`
}

// MetricName identifies one column of Metrics
type MetricName string

const (
	MetricMovementInit      MetricName = "movement_init"
	MetricMovementDuration  MetricName = "movement_duration"
	MetricTotalRT           MetricName = "total_rt"
	MetricInitialAngle      MetricName = "initial_angle"
	MetricDistanceTravelled MetricName = "distance_travelled"
	MetricAUC               MetricName = "auc"
	MetricMaxDeviation      MetricName = "max_deviation"
	MetricXFlips            MetricName = "x_flips"
)

// AllMetrics lists every metric in report order
var AllMetrics = []MetricName{
	MetricMovementInit,
	MetricMovementDuration,
	MetricTotalRT,
	MetricInitialAngle,
	MetricDistanceTravelled,
	MetricAUC,
	MetricMaxDeviation,
	MetricXFlips,
}

// Value returns the named metric
func (m Metrics) Value(name MetricName) (float64, bool) {
	switch name {
	case MetricMovementInit:
		return m.MovementInit, true
	case MetricMovementDuration:
		return m.MovementDuration, true
	case MetricTotalRT:
		return m.TotalRT, true
	case MetricInitialAngle:
		return m.InitialAngle, true
	case MetricDistanceTravelled:
		return m.DistanceTravelled, true
	case MetricAUC:
		return m.AUC, true
	case MetricMaxDeviation:
		return m.MaxDeviation, true
	case MetricXFlips:
		return float64(m.XFlips), true
	}
	return 0, false
}

// NonFinite returns the first metric that is NaN or infinite
func (m Metrics) NonFinite() (MetricName, bool) {
	for _, name := range AllMetrics {
		v, _ := m.Value(name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return name, true
		}
	}
	return "", false
}
