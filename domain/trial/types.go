package trial

import (
	"strings"

	"gotrack/domain/core"
)

// Type is the experimental condition of a trial
type Type string

const (
	TypeTypical  Type = "typical"
	TypeAtypical Type = "atypical"
)

// ParseType normalises the condition label written by the experiment logger.
// Labels other than typical/atypical (fillers, practice) are returned verbatim.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "typical", "typ", "t":
		return TypeTypical
	case "atypical", "atyp", "a":
		return TypeAtypical
	default:
		return Type(strings.TrimSpace(s))
	}
}

// IsExperimental reports whether the trial belongs to one of the compared conditions
func (t Type) IsExperimental() bool {
	return t == TypeTypical || t == TypeAtypical
}

// Handedness of the participant who produced a submission
type Handedness string

const (
	HandUnknown Handedness = ""
	HandLeft    Handedness = "left"
	HandRight   Handedness = "right"
)

// ParseHandedness accepts the usual questionnaire spellings
func ParseHandedness(s string) Handedness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l", "left-handed", "lefthanded":
		return HandLeft
	case "right", "r", "right-handed", "righthanded":
		return HandRight
	default:
		return HandUnknown
	}
}

// Label returns a printable label, "unknown" for HandUnknown
func (h Handedness) Label() string {
	if h == HandUnknown {
		return "unknown"
	}
	return string(h)
}

// Direction is the screen side of the correct response
type Direction string

const (
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Record is one row of the experiment export before validation
type Record struct {
	SubmissionID    core.SubmissionID
	TrialNumber     int
	Answer          string
	CorrectCategory string
	LeftCategory    string
	RightCategory   string
	Type            Type
	Animal          string
	Times           []float64
	X               []float64
	Y               []float64
	Handedness      Handedness
}

// TrialID returns the identifier the record will carry once validated
func (r Record) TrialID() core.TrialID {
	return core.NewTrialID(r.SubmissionID, r.TrialNumber)
}

// Direction returns the side the correct category was presented on
func (r Record) Direction() Direction {
	if strings.EqualFold(strings.TrimSpace(r.CorrectCategory), strings.TrimSpace(r.LeftCategory)) {
		return DirLeft
	}
	return DirRight
}

// Correct reports whether the participant picked the correct category
func (r Record) Correct() bool {
	return strings.EqualFold(strings.TrimSpace(r.Answer), strings.TrimSpace(r.CorrectCategory))
}

// Participant carries submission-level questionnaire data joined onto trials
type Participant struct {
	SubmissionID core.SubmissionID
	Handedness   Handedness
}

// Sample is one mouse position exploded from a trial's parallel sequences.
// Time is in milliseconds since the first sample; position is relative to the start point
// with y pointing up and x mirrored so every response heads right.
type Sample struct {
	TrialID core.TrialID `json:"trial_id"`
	Time    float64      `json:"t"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
}

// Trial is a validated record with its exploded samples
type Trial struct {
	ID        core.TrialID
	Record    Record
	Direction Direction
	Correct   bool
	Samples   []Sample
}

// Submission returns the submission the trial belongs to
func (t *Trial) Submission() core.SubmissionID {
	return t.Record.SubmissionID
}

// Type returns the condition of the trial
func (t *Trial) Type() Type {
	return t.Record.Type
}

// TotalRT is the elapsed time between first and last sample
func (t *Trial) TotalRT() float64 {
	if len(t.Samples) == 0 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].Time - t.Samples[0].Time
}

// Start returns the first sample
func (t *Trial) Start() Sample {
	return t.Samples[0]
}

// End returns the last sample
func (t *Trial) End() Sample {
	return t.Samples[len(t.Samples)-1]
}
