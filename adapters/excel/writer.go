package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gotrack/domain/trial"

	"github.com/xuri/excelize/v2"
)

// EncodeTrials renders records in the experiment logger's layout
func EncodeTrials(records []trial.Record) *Table {
	t := &Table{Headers: TrialHeaders, Rows: make([]RawRow, 0, len(records))}
	for _, r := range records {
		t.Rows = append(t.Rows, RawRow{
			"submission_id":     r.SubmissionID.String(),
			"trial_number":      strconv.Itoa(r.TrialNumber),
			"answer":            r.Answer,
			"correct_category":  r.CorrectCategory,
			"left_category":     r.LeftCategory,
			"right_category":    r.RightCategory,
			"trial_type":        string(r.Type),
			"animal":            r.Animal,
			"mousetrackingTime": FormatList(r.Times),
			"mousetrackingX":    FormatList(r.X),
			"mousetrackingY":    FormatList(r.Y),
			"handedness":        string(r.Handedness),
		})
	}
	return t
}

// EncodeParticipants renders the participants table
func EncodeParticipants(participants []trial.Participant) *Table {
	t := &Table{Headers: ParticipantHeaders, Rows: make([]RawRow, 0, len(participants))}
	for _, p := range participants {
		t.Rows = append(t.Rows, RawRow{
			"submission_id": p.SubmissionID.String(),
			"handedness":    string(p.Handedness),
		})
	}
	return t
}

// EncodeMetrics renders one row per trial with every kinematic metric
func EncodeMetrics(metrics []trial.Metrics) *Table {
	headers := []string{"trial_id", "submission_id", "trial_type", "handedness"}
	for _, name := range trial.AllMetrics {
		headers = append(headers, string(name))
	}

	t := &Table{Headers: headers, Rows: make([]RawRow, 0, len(metrics))}
	for _, m := range metrics {
		row := RawRow{
			"trial_id":      m.TrialID.String(),
			"submission_id": m.SubmissionID.String(),
			"trial_type":    string(m.Type),
			"handedness":    string(m.Handedness),
		}
		for _, name := range trial.AllMetrics {
			v, _ := m.Value(name)
			row[string(name)] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteMetrics writes derived metrics as .csv or .xlsx
func WriteMetrics(path string, metrics []trial.Metrics) error {
	return writeTable(path, EncodeMetrics(metrics))
}

// WriteTrials writes records as .csv or .xlsx depending on the path extension
func WriteTrials(path string, records []trial.Record) error {
	return writeTable(path, EncodeTrials(records))
}

// WriteParticipants writes the participants table as .csv or .xlsx
func WriteParticipants(path string, participants []trial.Participant) error {
	return writeTable(path, EncodeParticipants(participants))
}

func writeTable(path string, table *Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, table)
	case ".csv", "":
		return WriteCSV(path, table)
	default:
		return fmt.Errorf("unsupported output format: %s", filepath.Ext(path))
	}
}

// WriteCSV writes a table as CSV
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(rowValues(t.Headers, row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteXLSX writes a table to Sheet1 of a new workbook
func WriteXLSX(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}

	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, v := range rowValues(t.Headers, row) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

func rowValues(headers []string, row RawRow) []string {
	values := make([]string, len(headers))
	for i, h := range headers {
		values[i] = row[h]
	}
	return values
}
