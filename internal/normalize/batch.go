package normalize

import (
	"log"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// Result holds both normalizations for a set of trials
type Result struct {
	Time   map[core.TrialID][]trial.TimePoint
	Space  map[core.TrialID][]trial.SpacePoint
	Failed map[core.TrialID]error
}

// All time- and space-normalizes every trial. Trials that fail either step are
// recorded in Failed and absent from both maps.
func All(trials []*trial.Trial, steps int, opts SpaceOptions) *Result {
	res := &Result{
		Time:   make(map[core.TrialID][]trial.TimePoint, len(trials)),
		Space:  make(map[core.TrialID][]trial.SpacePoint, len(trials)),
		Failed: make(map[core.TrialID]error),
	}

	for _, t := range trials {
		tp, err := TimeNormalize(t, steps)
		if err != nil {
			res.Failed[t.ID] = err
			continue
		}
		sp, err := SpaceNormalize(t, opts)
		if err != nil {
			res.Failed[t.ID] = err
			continue
		}
		res.Time[t.ID] = tp
		res.Space[t.ID] = sp
	}

	if len(res.Failed) > 0 {
		log.Printf("[Normalize] %d trials could not be normalized", len(res.Failed))
	}
	return res
}
