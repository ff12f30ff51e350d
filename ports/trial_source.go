package ports

import (
	"context"

	"gotrack/domain/trial"
)

// TrialSource yields raw trial records from the experiment export
type TrialSource interface {
	ReadTrials(ctx context.Context) ([]trial.Record, error)
}

// ParticipantSource yields submission-level questionnaire data
type ParticipantSource interface {
	ReadParticipants(ctx context.Context) ([]trial.Participant, error)
}
