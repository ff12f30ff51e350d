package excel

// RawRow maps a header to the trimmed cell value of one data row
type RawRow map[string]string

// Table is a parsed sheet: header row plus data rows
type Table struct {
	Headers []string
	Rows    []RawRow
}

// Column aliases written by the experiment logger and by hand-made exports.
// Lookups are case-insensitive; the first alias present in the header wins.
var (
	colSubmission = []string{"submission_id", "submissionid", "participant", "participant_id", "subject"}
	colTrialNum   = []string{"trial_number", "trialnr", "trial_nr", "trial", "trial_index"}
	colAnswer     = []string{"answer", "response", "selected", "choice"}
	colCorrect    = []string{"correct_category", "correct_answer", "correct", "category"}
	colLeft       = []string{"left_category", "category_left", "option1", "left"}
	colRight      = []string{"right_category", "category_right", "option2", "right"}
	colType       = []string{"trial_type", "type", "condition", "typicality"}
	colAnimal     = []string{"animal", "exemplar", "item", "stimulus"}
	colTimes      = []string{"mousetrackingtime", "mousetracking_time", "mt_time", "times", "time"}
	colX          = []string{"mousetrackingx", "mousetracking_x", "mt_x", "xpos", "x"}
	colY          = []string{"mousetrackingy", "mousetracking_y", "mt_y", "ypos", "y"}
	colHandedness = []string{"handedness", "hand", "handed"}
)

// TrialHeaders is the header row WriteTrials emits
var TrialHeaders = []string{
	"submission_id", "trial_number", "answer", "correct_category",
	"left_category", "right_category", "trial_type", "animal",
	"mousetrackingTime", "mousetrackingX", "mousetrackingY", "handedness",
}

// ParticipantHeaders is the header row WriteParticipants emits
var ParticipantHeaders = []string{"submission_id", "handedness"}
