package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Input errors
	ErrInvalidTrace     = errors.New("invalid mouse-tracking trace")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateGroup  = errors.New("group has zero variance")
)

// NewNotFoundError wraps ErrNotFound with the resource name and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewTraceError reports why a single trial's trace was rejected
func NewTraceError(trialID TrialID, reason string) error {
	return fmt.Errorf("%w: trial %s: %s", ErrInvalidTrace, trialID, reason)
}

// NewInsufficientDataError reports the sample size a computation needed
func NewInsufficientDataError(what string, have, need int) error {
	return fmt.Errorf("%w: %s has %d observations, need %d", ErrInsufficientData, what, have, need)
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err stems from malformed input data
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidTrace) || errors.Is(err, ErrMissingColumn)
}
