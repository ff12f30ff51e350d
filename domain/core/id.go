package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID        ID
	SubmissionID ID
	TrialID      ID
)

// String conversions for domain IDs
func (id RunID) String() string        { return ID(id).String() }
func (id SubmissionID) String() string { return ID(id).String() }
func (id TrialID) String() string      { return ID(id).String() }

// NewRunID creates a time-ordered identifier for an analysis run
func NewRunID() RunID {
	return RunID(NewID())
}

// NewTrialID builds the stable identifier of a trial within a submission
func NewTrialID(submission SubmissionID, trialNumber int) TrialID {
	return TrialID(fmt.Sprintf("%s/%d", submission, trialNumber))
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseSubmissionID parses a string into SubmissionID
func ParseSubmissionID(s string) (SubmissionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("submission ID cannot be empty")
	}
	return SubmissionID(s), nil
}
