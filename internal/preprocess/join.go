package preprocess

import (
	"log"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// JoinReport counts how many records received participant data
type JoinReport struct {
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Kept      int `json:"kept"` // records that already carried handedness
}

// Join attaches handedness from the participants table to records that lack it.
// Records are copied; the input slice is not modified.
func Join(records []trial.Record, participants []trial.Participant) ([]trial.Record, JoinReport) {
	byID := make(map[core.SubmissionID]trial.Handedness, len(participants))
	for _, p := range participants {
		if p.Handedness != trial.HandUnknown {
			byID[p.SubmissionID] = p.Handedness
		}
	}

	out := make([]trial.Record, len(records))
	var report JoinReport
	for i, r := range records {
		out[i] = r
		if r.Handedness != trial.HandUnknown {
			report.Kept++
			continue
		}
		if h, ok := byID[r.SubmissionID]; ok {
			out[i].Handedness = h
			report.Matched++
		} else {
			report.Unmatched++
		}
	}

	if len(participants) > 0 {
		log.Printf("[Preprocess] Joined handedness: %d matched, %d unmatched, %d already set",
			report.Matched, report.Unmatched, report.Kept)
	}
	return out, report
}
