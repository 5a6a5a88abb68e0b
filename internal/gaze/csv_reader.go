package gaze

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

// Columns names the CSV header fields holding each value. TaskColumn and
// StreamColumn are optional.
type Columns struct {
	Time         string
	X            string
	Y            string
	Confidence   string
	TaskColumn   string
	StreamColumn string
}

// CSVReader reads gaze records from a time-series CSV with a header row.
// Rows whose time, x, y or confidence fields are not numeric are skipped and
// counted; rows of other tasks are dropped when a task filter is set.
type CSVReader struct {
	r          *csv.Reader
	task       string
	idxT       int
	idxX       int
	idxY       int
	idxC       int
	idxTask    int
	idxStream  int
	skipped    int
	filtered   int
	lineNumber int
}

// NewCSVReader reads the header and resolves the configured columns. If task
// is non-empty only rows of that task are returned, which requires a task
// column.
func NewCSVReader(r io.Reader, cols Columns, task string) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCSVReadFailed, err)
	}
	index := headerIndex(header)

	reader := &CSVReader{r: cr, task: task, idxTask: -1, idxStream: -1, lineNumber: 1}
	for _, req := range []struct {
		name string
		dst  *int
	}{
		{cols.Time, &reader.idxT},
		{cols.X, &reader.idxX},
		{cols.Y, &reader.idxY},
		{cols.Confidence, &reader.idxC},
	} {
		i, ok := index[req.name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, req.name)
		}
		*req.dst = i
	}
	if i, ok := index[cols.TaskColumn]; ok && cols.TaskColumn != "" {
		reader.idxTask = i
	} else if task != "" {
		return nil, fmt.Errorf("%w: %q (needed for task filter)", ErrMissingColumn, cols.TaskColumn)
	}
	if i, ok := index[cols.StreamColumn]; ok && cols.StreamColumn != "" {
		reader.idxStream = i
	}
	return reader, nil
}

// Next returns the next valid record, or io.EOF when the input is exhausted.
func (c *CSVReader) Next() (Record, error) {
	for {
		row, err := c.r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, fmt.Errorf("%w: line %d: %w", ErrCSVReadFailed, c.lineNumber+1, err)
		}
		c.lineNumber++

		if isBlank(row) {
			continue
		}
		taskVal := field(row, c.idxTask)
		if c.task != "" && taskVal != c.task {
			c.filtered++
			continue
		}

		t, okT := parseNumber(field(row, c.idxT))
		x, okX := parseNumber(field(row, c.idxX))
		y, okY := parseNumber(field(row, c.idxY))
		conf, okC := parseNumber(field(row, c.idxC))
		if !okT || !okX || !okY || !okC {
			c.skipped++
			continue
		}

		return Record{
			Stream: StreamKey(field(row, c.idxStream), taskVal),
			Task:   taskVal,
			Sample: fixation.Sample{T: t, X: x, Y: y, C: conf},
		}, nil
	}
}

// Skipped is the number of rows dropped for non-numeric fields.
func (c *CSVReader) Skipped() int { return c.skipped }

// Filtered is the number of rows dropped by the task filter.
func (c *CSVReader) Filtered() int { return c.filtered }

// ReadCalibrationErrors reads a trial table and returns the calibration
// error per task. When a task appears on several rows the last numeric value
// wins.
func ReadCalibrationErrors(r io.Reader, taskColumn, calibrationColumn string) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCSVReadFailed, err)
	}
	index := headerIndex(header)
	idxTask, ok := index[taskColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, taskColumn)
	}
	idxCalib, ok := index[calibrationColumn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, calibrationColumn)
	}

	out := make(map[string]float64)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCSVReadFailed, err)
		}
		task := field(row, idxTask)
		if v, ok := parseNumber(field(row, idxCalib)); ok && task != "" {
			out[task] = v
		}
	}
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.Trim(strings.TrimSpace(h), `"`)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	// Some exports address columns by position; allow "0", "1", ...
	for i := range header {
		key := strconv.Itoa(i)
		if _, taken := index[key]; !taken {
			index[key] = i
		}
	}
	return index
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseNumber(s string) (float64, bool) {
	s = strings.Trim(s, `"`)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
