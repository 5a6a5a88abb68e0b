package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

// csvHeader is the fixed output column order.
var csvHeader = []string{
	"run_id", "stream", "start_time", "end_time", "fixation_duration",
	"X_mean", "Y_mean", "dispersion", "conclusionCriteria",
}

// CSVSink writes one row per fixation to a delimited file.
type CSVSink struct {
	file           *os.File
	w              *csv.Writer
	includeSamples bool
}

// NewCSVSink creates (truncating) the output file and writes the header.
func NewCSVSink(cfg config.CSVSinkConfig) (*CSVSink, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory %s: %w", ErrSinkCreationFailed, dir, err)
		}
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
	}

	s := &CSVSink{file: f, w: csv.NewWriter(f), includeSamples: cfg.IncludeSamples}
	header := csvHeader
	if s.includeSamples {
		header = append(append([]string(nil), csvHeader...), "samples")
	}
	if err := s.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
	}
	return s, nil
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, e FixationEvent) error {
	f := e.Fixation
	row := []string{
		e.RunID,
		e.Stream,
		formatFloat(f.StartTime),
		formatFloat(f.EndTime),
		formatFloat(f.Duration),
		formatFloat(f.Centroid.X),
		formatFloat(f.Centroid.Y),
		formatFloat(f.Dispersion),
		string(f.Reason),
	}
	if s.includeSamples {
		row = append(row, encodeSamples(f.Samples))
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// encodeSamples renders samples as "t:x:y:c" entries joined by ';'.
func encodeSamples(samples []fixation.Sample) string {
	parts := make([]string, len(samples))
	for i, s := range samples {
		parts[i] = formatFloat(s.T) + ":" + formatFloat(s.X) + ":" + formatFloat(s.Y) + ":" + formatFloat(s.C)
	}
	return strings.Join(parts, ";")
}
