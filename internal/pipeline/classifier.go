package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
	"github.com/sanspareilsmyn/fixationlens/internal/gaze"
)

// StreamSummary reports per-stream totals for quality control.
type StreamSummary struct {
	Stream    string
	Samples   int
	Fixations int
	Dropped   int
}

// Classifier runs one fixation detector per gaze stream. It is the only
// goroutine touching the detectors, so samples of a stream are always
// processed sequentially in arrival order.
type Classifier struct {
	cfg    config.DetectorConfig
	runID  string
	input  <-chan gaze.Record
	output chan<- FixationEvent
	logger *zap.Logger

	streams  map[string]*streamState
	rejected map[string]error
}

// NewClassifier creates a new Classifier instance.
func NewClassifier(cfg config.DetectorConfig, runID string, input <-chan gaze.Record, output chan<- FixationEvent, logger *zap.Logger) *Classifier {
	logger.Info("Classifier initialized",
		zap.String("run_id", runID),
		zap.Float64("calibration_error", cfg.CalibrationError),
		zap.Int("calibration_overrides", len(cfg.CalibrationErrors)),
		zap.Bool("flush_on_end", cfg.FlushOnEnd),
	)
	return &Classifier{
		cfg:      cfg,
		runID:    runID,
		input:    input,
		output:   output,
		logger:   logger,
		streams:  make(map[string]*streamState),
		rejected: make(map[string]error),
	}
}

// Run consumes records until the input closes or the context is cancelled.
func (c *Classifier) Run(ctx context.Context) error {
	sugar := c.logger.Sugar()
	sugar.Info("Starting classifier loop...")
	defer func() {
		activeStreams.Sub(float64(len(c.streams)))
		sugar.Info("Classifier loop stopped.")
	}()

	for {
		select {
		case rec, ok := <-c.input:
			if !ok {
				sugar.Info("Classifier input channel closed. Finishing streams...")
				if err := c.finish(ctx); err != nil {
					return err
				}
				return nil
			}
			if err := c.process(ctx, rec); err != nil {
				return err
			}

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping classifier.")
			c.logSummaries()
			return ctx.Err()
		}
	}
}

// process feeds one record into its stream's detector.
func (c *Classifier) process(ctx context.Context, rec gaze.Record) error {
	st := c.streamFor(rec)
	if st == nil {
		samplesSkipped.WithLabelValues("classifier", "no_detector").Inc()
		return nil
	}

	res := st.detector.Step(rec.Sample)
	st.samples++
	samplesProcessed.WithLabelValues(rec.Stream).Inc()

	if dropped := st.detector.Dropped(); dropped > st.lastDropped {
		samplesDropped.WithLabelValues(rec.Stream).Add(float64(dropped - st.lastDropped))
		st.lastDropped = dropped
	}
	if res.Violation != nil {
		invariantViolations.WithLabelValues(rec.Stream, violationLabel(res.Violation)).Inc()
	}
	if !res.Concluded() {
		return nil
	}
	return c.emit(ctx, rec.Stream, st, *res.Fixation)
}

// streamFor returns the stream's state, creating its detector on first use.
// Streams whose detector cannot be built are remembered and ignored.
func (c *Classifier) streamFor(rec gaze.Record) *streamState {
	if st, ok := c.streams[rec.Stream]; ok {
		return st
	}
	if _, bad := c.rejected[rec.Stream]; bad {
		return nil
	}

	calib := c.cfg.CalibrationErrorFor(rec.Stream)
	if rec.CalibrationError > 0 {
		calib = rec.CalibrationError
	}
	det, err := fixation.NewDetector(
		c.cfg.WithCalibrationError(calib),
		c.logger.With(zap.String("stream", rec.Stream)),
	)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDetectorCreationFailed, err)
		c.rejected[rec.Stream] = err
		c.logger.Error("Ignoring gaze stream", zap.String("stream", rec.Stream), zap.Float64("calibration_error", calib), zap.Error(err))
		return nil
	}

	st := &streamState{detector: det, task: rec.Task}
	c.streams[rec.Stream] = st
	activeStreams.Inc()
	c.logger.Info("New gaze stream",
		zap.String("stream", rec.Stream),
		zap.String("task", rec.Task),
		zap.Float64("calibration_error", calib),
		zap.Float64("dispersion_threshold", det.Config().DispersionThreshold()),
	)
	return st
}

func (c *Classifier) emit(ctx context.Context, stream string, st *streamState, f fixation.Fixation) error {
	st.fixations++
	fixationsConcluded.WithLabelValues(stream, string(f.Reason)).Inc()
	fixationDuration.Observe(f.Duration)
	c.logger.Debug("Fixation concluded",
		zap.String("stream", stream),
		zap.Float64("start_time", f.StartTime),
		zap.Float64("duration", f.Duration),
		zap.String("reason", string(f.Reason)),
	)

	event := FixationEvent{RunID: c.runID, Stream: stream, Task: st.task, Fixation: f}
	select {
	case c.output <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish flushes ongoing fixations when configured and logs the per-stream
// summary.
func (c *Classifier) finish(ctx context.Context) error {
	if c.cfg.FlushOnEnd {
		for _, name := range slices.Sorted(maps.Keys(c.streams)) {
			st := c.streams[name]
			res, ok := st.detector.Flush()
			if !ok {
				continue
			}
			if err := c.emit(ctx, name, st, *res.Fixation); err != nil {
				return err
			}
		}
	}
	c.logSummaries()
	return nil
}

// Summaries returns per-stream totals ordered by stream name.
func (c *Classifier) Summaries() []StreamSummary {
	out := make([]StreamSummary, 0, len(c.streams))
	for _, name := range slices.Sorted(maps.Keys(c.streams)) {
		st := c.streams[name]
		out = append(out, StreamSummary{
			Stream:    name,
			Samples:   st.samples,
			Fixations: st.fixations,
			Dropped:   st.detector.Dropped(),
		})
	}
	return out
}

func (c *Classifier) logSummaries() {
	for _, s := range c.Summaries() {
		c.logger.Info("Stream summary",
			zap.String("stream", s.Stream),
			zap.Int("samples", s.Samples),
			zap.Int("fixations", s.Fixations),
			zap.Int("dropped", s.Dropped),
		)
	}
	for stream, err := range c.rejected {
		c.logger.Warn("Stream was ignored", zap.String("stream", stream), zap.Error(err))
	}
}

func violationLabel(err error) string {
	switch {
	case errors.Is(err, fixation.ErrOngoingAboveThreshold):
		return "ongoing_above_threshold"
	case errors.Is(err, fixation.ErrShortFixation):
		return "short_fixation"
	default:
		return "other"
	}
}
