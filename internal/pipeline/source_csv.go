package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
	"github.com/sanspareilsmyn/fixationlens/internal/gaze"
)

// CSVSource replays a recorded gaze time series. Records are emitted in file
// order; per-task calibration errors from the trial file, if any, are
// attached to every record of that task.
type CSVSource struct {
	cfg          config.CSVSourceConfig
	calibrations map[string]float64
	output       chan<- gaze.Record
	logger       *zap.Logger
}

// NewCSVSource loads the optional trial file eagerly so configuration
// problems surface before the pipeline starts.
func NewCSVSource(cfg config.CSVSourceConfig, output chan<- gaze.Record, logger *zap.Logger) (*CSVSource, error) {
	s := &CSVSource{cfg: cfg, output: output, logger: logger}
	if cfg.TrialFile == "" {
		return s, nil
	}

	f, err := os.Open(cfg.TrialFile)
	if err != nil {
		return nil, fmt.Errorf("open trial file: %w", err)
	}
	defer f.Close()

	calibrations, err := gaze.ReadCalibrationErrors(f, cfg.TaskColumn, cfg.TrialCalibrationColumn)
	if err != nil {
		return nil, fmt.Errorf("read trial file %s: %w", cfg.TrialFile, err)
	}
	s.calibrations = calibrations
	logger.Info("Loaded per-task calibration errors",
		zap.String("trial_file", cfg.TrialFile),
		zap.Int("tasks", len(calibrations)),
	)
	return s, nil
}

func (s *CSVSource) columns() gaze.Columns {
	return gaze.Columns{
		Time:         s.cfg.TimeColumn,
		X:            s.cfg.XColumn,
		Y:            s.cfg.YColumn,
		Confidence:   s.cfg.ConfidenceColumn,
		TaskColumn:   s.cfg.TaskColumn,
		StreamColumn: s.cfg.StreamColumn,
	}
}

// Run reads the whole file and returns nil at end of input.
func (s *CSVSource) Run(ctx context.Context) error {
	sugar := s.logger.Sugar()
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("open gaze file: %w", err)
	}
	defer f.Close()

	reader, err := gaze.NewCSVReader(f, s.columns(), s.cfg.Task)
	if err != nil {
		return fmt.Errorf("read gaze file %s: %w", s.cfg.Path, err)
	}
	sugar.Infow("Reading gaze samples", "path", s.cfg.Path, "task_filter", s.cfg.Task)

	emitted := 0
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if calib, ok := s.calibrations[rec.Task]; ok {
			rec.CalibrationError = calib
		}

		select {
		case s.output <- rec:
			emitted++
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	samplesSkipped.WithLabelValues("csv", "invalid").Add(float64(reader.Skipped()))
	samplesSkipped.WithLabelValues("csv", "filtered").Add(float64(reader.Filtered()))
	sugar.Infow("Finished reading gaze samples",
		"path", s.cfg.Path,
		"emitted", emitted,
		"skipped_invalid", reader.Skipped(),
		"filtered_task", reader.Filtered(),
	)
	return nil
}
