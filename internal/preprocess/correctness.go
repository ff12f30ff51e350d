package preprocess

import (
	"log"

	"gotrack/domain/trial"
)

// FilterCorrect keeps trials whose answer matches the correct category
func FilterCorrect(trials []*trial.Trial) ([]*trial.Trial, int) {
	kept := make([]*trial.Trial, 0, len(trials))
	for _, t := range trials {
		if t.Correct {
			kept = append(kept, t)
		}
	}
	removed := len(trials) - len(kept)
	log.Printf("[Preprocess] Correctness filter removed %d of %d trials", removed, len(trials))
	return kept, removed
}
