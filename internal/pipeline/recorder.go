package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Recorder receives concluded fixations and writes each one to every sink.
type Recorder struct {
	sinks   []Sink
	input   <-chan FixationEvent
	logger  *zap.Logger
	written int
}

// NewRecorder creates a new Recorder instance.
func NewRecorder(sinks []Sink, input <-chan FixationEvent, logger *zap.Logger) *Recorder {
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	logger.Debug("Recorder initialized", zap.Strings("sinks", names))

	return &Recorder{sinks: sinks, input: input, logger: logger}
}

// Run writes events until the input closes or the context is cancelled. The
// sinks are closed on return.
func (r *Recorder) Run(ctx context.Context) (err error) {
	sugar := r.logger.Sugar()
	sugar.Info("Starting recorder loop...")
	defer func() {
		if closeErr := r.closeSinks(); closeErr != nil && err == nil {
			err = closeErr
		}
		sugar.Infow("Recorder loop stopped.", "fixations_written", r.written)
	}()

	for {
		select {
		case event, ok := <-r.input:
			if !ok {
				sugar.Info("Recorder input channel closed.")
				return nil
			}
			if err := r.record(ctx, event); err != nil {
				return err
			}

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping recorder.")
			return ctx.Err()
		}
	}
}

// record writes one event to all sinks, failing on the first sink error.
func (r *Recorder) record(ctx context.Context, event FixationEvent) error {
	for _, s := range r.sinks {
		if err := s.Write(ctx, event); err != nil {
			sinkWrites.WithLabelValues(s.Name(), "error").Inc()
			r.logger.Error("Sink write failed",
				zap.String("sink", s.Name()),
				zap.String("stream", event.Stream),
				zap.Float64("start_time", event.Fixation.StartTime),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %s: %w", ErrSinkWriteFailed, s.Name(), err)
		}
		sinkWrites.WithLabelValues(s.Name(), "ok").Inc()
	}
	r.written++
	return nil
}

func (r *Recorder) closeSinks() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			r.logger.Warn("Failed to close sink", zap.String("sink", s.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
