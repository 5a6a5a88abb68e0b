package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
	"github.com/sanspareilsmyn/fixationlens/internal/gaze"
)

type runner interface {
	Run(ctx context.Context) error
}

// Pipeline orchestrates the stages: source, classifier, recorder, and the
// optional metrics endpoint.
type Pipeline struct {
	cfg        *config.Config
	runID      string
	source     runner
	classifier *Classifier
	recorder   *Recorder
	metrics    *MetricsServer
	logger     *zap.Logger

	records chan gaze.Record
	events  chan FixationEvent
}

// New creates and wires up a new fixation pipeline.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	runID := uuid.NewString()
	initLogger.Debug("Creating pipeline components...", zap.String("run_id", runID))

	const channelBufferSize = 256
	records := make(chan gaze.Record, channelBufferSize)
	events := make(chan FixationEvent, channelBufferSize)

	source, err := newSource(cfg, records, logger.Named("source"))
	if err != nil {
		initLogger.Error("Failed to create source", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSourceCreationFailed, err)
	}
	initLogger.Debug("Source created", zap.String("type", cfg.Source.Type))

	sinks, err := newSinks(cfg)
	if err != nil {
		initLogger.Error("Failed to create sinks", zap.Error(err))
		return nil, err
	}
	initLogger.Debug("Sinks created", zap.Int("count", len(sinks)))

	p := &Pipeline{
		cfg:        cfg,
		runID:      runID,
		source:     source,
		classifier: NewClassifier(cfg.Detector, runID, records, events, logger.Named("classifier")),
		recorder:   NewRecorder(sinks, events, logger.Named("recorder")),
		logger:     logger.Named("pipeline"),
		records:    records,
		events:     events,
	}
	if cfg.Metrics.ListenAddress != "" {
		p.metrics = NewMetricsServer(cfg.Metrics.ListenAddress, logger.Named("metrics"))
	}

	initLogger.Info("Pipeline instance created successfully", zap.String("run_id", runID))
	return p, nil
}

func newSource(cfg *config.Config, out chan<- gaze.Record, logger *zap.Logger) (runner, error) {
	switch cfg.Source.Type {
	case config.SourceKafka:
		return NewKafkaSource(cfg.Kafka, out, logger)
	case config.SourceCSV:
		return NewCSVSource(cfg.Source.CSV, out, logger)
	default:
		return nil, config.ErrUnknownSourceType
	}
}

// newSinks builds every configured sink; on failure the ones already opened
// are closed again.
func newSinks(cfg *config.Config) ([]Sink, error) {
	var sinks []Sink
	fail := func(err error) ([]Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.Sinks.CSV.Path != "" {
		s, err := NewCSVSink(cfg.Sinks.CSV)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Sinks.SQLite.Path != "" {
		s, err := NewSQLiteSink(cfg.Sinks.SQLite)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Sinks.Kafka.Topic != "" {
		sinks = append(sinks, NewKafkaSink(cfg.Kafka.Brokers, cfg.Sinks.Kafka))
	}
	if len(sinks) == 0 {
		return nil, config.ErrNoSinksConfigured
	}
	return sinks, nil
}

// RunID identifies this run in every emitted record.
func (p *Pipeline) RunID() string { return p.runID }

// Run starts all components and waits until the input is exhausted, a
// component fails, or the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	pipelineErr := make(chan error, 3) // source, classifier, recorder

	sugar.Info("Pipeline Run: Starting components...")
	wg.Add(3)
	go p.runSource(ctx, &wg, pipelineErr)
	go p.runClassifier(ctx, &wg, pipelineErr)
	go p.runRecorder(ctx, &wg, pipelineErr)

	var metricsWg sync.WaitGroup
	if p.metrics != nil {
		metricsWg.Add(1)
		go func() {
			defer metricsWg.Done()
			if err := p.metrics.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var firstErr error
	select {
	case <-done:
		sugar.Info("Pipeline Run: Input exhausted.")
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
	}
	if firstErr == nil {
		select {
		case err := <-pipelineErr:
			firstErr = err
		default:
		}
	}

	cancel()
	wg.Wait()
	metricsWg.Wait()
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

// runSource executes the source component in a goroutine.
func (p *Pipeline) runSource(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.records)
		p.logger.Debug("Records channel closed")
	}()

	p.logger.Debug("Starting source goroutine...")
	if err := p.source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Source component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrSourceRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Source goroutine finished normally")
	} else {
		p.logger.Debug("Source goroutine cancelled gracefully")
	}
}

// runClassifier executes the classifier component in a goroutine.
func (p *Pipeline) runClassifier(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.events)
		p.logger.Debug("Fixation events channel closed")
	}()

	p.logger.Debug("Starting classifier goroutine...")
	if err := p.classifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Classifier component exited with error", zap.Error(err))
		errCh <- err
	} else if err == nil {
		p.logger.Debug("Classifier goroutine finished normally")
	} else {
		p.logger.Debug("Classifier goroutine cancelled gracefully")
	}
}

// runRecorder executes the recorder component in a goroutine.
func (p *Pipeline) runRecorder(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Starting recorder goroutine...")
	if err := p.recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Recorder component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrRecorderRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Recorder goroutine finished normally")
	} else {
		p.logger.Debug("Recorder goroutine cancelled gracefully")
	}
}

// Summaries returns the per-stream totals gathered by the classifier. Only
// call it after Run has returned.
func (p *Pipeline) Summaries() []StreamSummary {
	return p.classifier.Summaries()
}
