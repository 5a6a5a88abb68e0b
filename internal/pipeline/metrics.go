package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Prometheus Metrics Definition
var (
	samplesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixationlens_samples_processed_total",
			Help: "Gaze samples fed into a fixation detector.",
		},
		[]string{"stream"},
	)
	samplesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixationlens_samples_skipped_total",
			Help: "Input rows or messages rejected before reaching a detector.",
		},
		[]string{"source", "cause"}, // cause: invalid, filtered
	)
	samplesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixationlens_samples_dropped_total",
			Help: "Samples discarded by the detector (gaps, duplicates, saccades).",
		},
		[]string{"stream"},
	)
	fixationsConcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixationlens_fixations_total",
			Help: "Concluded fixations by conclusion reason.",
		},
		[]string{"stream", "reason"},
	)
	fixationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fixationlens_fixation_duration_ms",
			Help:    "Duration of concluded fixations in milliseconds.",
			Buckets: []float64{50, 100, 150, 200, 300, 400, 600, 800, 1200, 2000, 5000},
		},
	)
	invariantViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixationlens_invariant_violations_total",
			Help: "Internal detector invariant violations; any non-zero value indicates a defect.",
		},
		[]string{"stream", "violation"},
	)
	activeStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fixationlens_active_streams",
			Help: "Number of gaze streams with a live detector.",
		},
	)
	sinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixationlens_sink_writes_total",
			Help: "Fixation events written per sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)
)

// MetricsServer exposes the default Prometheus registry over HTTP.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a server listening on addr with /metrics mounted.
func NewMetricsServer(addr string, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled.
func (m *MetricsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		m.logger.Info("Metrics endpoint listening", zap.String("address", m.server.Addr))
		errCh <- m.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrMetricsServerFailed, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.server.Shutdown(shutdownCtx); err != nil {
			m.logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
		return ctx.Err()
	}
}
