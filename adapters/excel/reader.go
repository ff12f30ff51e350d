package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gotrack/domain/core"
	"gotrack/domain/trial"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV exports of the experiment
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadData reads the file into a Table
func (r *DataReader) ReadData() (*Table, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the first sheet of a workbook
func (r *DataReader) readExcelData() (*Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	log.Printf("[DataReader] Sheet %s read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into a Table
func (r *DataReader) readCSVData() (*Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into a Table, skipping blank lines
func (r *DataReader) processRows(rows [][]string) (*Table, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]RawRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowData := make(RawRow, len(headers))
		empty := true

		for j, cell := range row {
			if j < len(headers) {
				v := strings.TrimSpace(cell)
				rowData[headers[j]] = v
				if v != "" {
					empty = false
				}
			}
		}

		if !empty {
			dataRows = append(dataRows, rowData)
		}
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &Table{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// ReadTrials parses every row into a trial record. Rows with an unparseable trace keep
// empty sequences so the filter stage can count them instead of aborting the load.
func (r *DataReader) ReadTrials(ctx context.Context) ([]trial.Record, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return DecodeTrials(ctx, data)
}

// DecodeTrials maps table rows onto trial records
func DecodeTrials(ctx context.Context, data *Table) ([]trial.Record, error) {
	cols := newColumnIndex(data.Headers)

	required := map[string][]string{
		"submission": colSubmission,
		"answer":     colAnswer,
		"correct":    colCorrect,
		"left":       colLeft,
		"right":      colRight,
		"type":       colType,
		"times":      colTimes,
		"x":          colX,
		"y":          colY,
	}
	h := make(map[string]string, len(required))
	for key, aliases := range required {
		name, err := cols.require(aliases)
		if err != nil {
			return nil, fmt.Errorf("trial file column %s: %w", key, err)
		}
		h[key] = name
	}
	trialCol, hasTrialCol := cols.lookup(colTrialNum)
	animalCol, hasAnimal := cols.lookup(colAnimal)
	handCol, hasHand := cols.lookup(colHandedness)

	counters := make(map[core.SubmissionID]int)
	records := make([]trial.Record, 0, len(data.Rows))
	badTraces := 0

	for i, row := range data.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		sub, err := core.ParseSubmissionID(row[h["submission"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		counters[sub]++
		trialNumber := counters[sub]
		if hasTrialCol {
			if n, err := strconv.Atoi(row[trialCol]); err == nil {
				trialNumber = n
			}
		}

		rec := trial.Record{
			SubmissionID:    sub,
			TrialNumber:     trialNumber,
			Answer:          row[h["answer"]],
			CorrectCategory: row[h["correct"]],
			LeftCategory:    row[h["left"]],
			RightCategory:   row[h["right"]],
			Type:            trial.ParseType(row[h["type"]]),
		}
		if hasAnimal {
			rec.Animal = row[animalCol]
		}
		if hasHand {
			rec.Handedness = trial.ParseHandedness(row[handCol])
		}

		times, errT := ParseList(row[h["times"]])
		xs, errX := ParseList(row[h["x"]])
		ys, errY := ParseList(row[h["y"]])
		if errT != nil || errX != nil || errY != nil {
			badTraces++
			log.Printf("[DataReader] Row %d (%s): unparseable trace, keeping empty", i+2, rec.TrialID())
		} else {
			rec.Times, rec.X, rec.Y = times, xs, ys
		}

		records = append(records, rec)
	}

	if badTraces > 0 {
		log.Printf("[DataReader] %d rows had unparseable traces", badTraces)
	}
	return records, nil
}

// ParticipantReader reads submission-level questionnaire data
type ParticipantReader struct {
	reader *DataReader
}

// NewParticipantReader creates a reader for a participants file
func NewParticipantReader(filePath string) *ParticipantReader {
	return &ParticipantReader{reader: NewDataReader(filePath)}
}

// ReadParticipants parses the participants table
func (p *ParticipantReader) ReadParticipants(ctx context.Context) ([]trial.Participant, error) {
	data, err := p.reader.ReadData()
	if err != nil {
		return nil, err
	}

	cols := newColumnIndex(data.Headers)
	subCol, err := cols.require(colSubmission)
	if err != nil {
		return nil, fmt.Errorf("participants file: %w", err)
	}
	handCol, err := cols.require(colHandedness)
	if err != nil {
		return nil, fmt.Errorf("participants file: %w", err)
	}

	participants := make([]trial.Participant, 0, len(data.Rows))
	for i, row := range data.Rows {
		sub, err := core.ParseSubmissionID(row[subCol])
		if err != nil {
			return nil, fmt.Errorf("participants row %d: %w", i+2, err)
		}
		participants = append(participants, trial.Participant{
			SubmissionID: sub,
			Handedness:   trial.ParseHandedness(row[handCol]),
		})
	}
	return participants, nil
}
