package pipeline

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

func sampleEvent() FixationEvent {
	return FixationEvent{
		RunID:  "run-1",
		Stream: "s1",
		Task:   "large_grid",
		Fixation: fixation.Fixation{
			StartTime:  100,
			EndTime:    250.5,
			Duration:   150.5,
			Centroid:   fixation.Point{X: 0.25, Y: -1},
			Dispersion: 0.125,
			Samples: []fixation.Sample{
				{T: 100, X: 0.2, Y: -1, C: 1},
				{T: 180, X: 0.3, Y: -1, C: 0.5},
				{T: 250.5, X: 0.25, Y: -1, C: 1},
			},
			Reason: fixation.ReasonRelThreshold,
		},
	}
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fixations.csv")
	sink, err := NewCSVSink(config.CSVSinkConfig{Path: path, IncludeSamples: true})
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), sampleEvent()))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"run_id", "stream", "start_time", "end_time", "fixation_duration",
		"X_mean", "Y_mean", "dispersion", "conclusionCriteria", "samples",
	}, rows[0])
	assert.Equal(t, []string{
		"run-1", "s1", "100", "250.5", "150.5", "0.25", "-1", "0.125", "rel_threshold",
		"100:0.2:-1:1;180:0.3:-1:0.5;250.5:0.25:-1:1",
	}, rows[1])
}

func TestCSVSink_WithoutSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixations.csv")
	sink, err := NewCSVSink(config.CSVSinkConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), sampleEvent()))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Len(t, rows[1], len(csvHeader))
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixations.db")
	sink, err := NewSQLiteSink(config.SQLiteSinkConfig{Path: path})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, sampleEvent()))
	require.NoError(t, sink.Write(ctx, sampleEvent()))
	require.NoError(t, sink.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fixations WHERE run_id = ?`, "run-1").Scan(&count))
	assert.Equal(t, 2, count)

	var (
		stream, reason, samplesJSON string
		duration, cx                float64
		sampleCount                 int
	)
	require.NoError(t, db.QueryRow(
		`SELECT stream, reason, duration, centroid_x, sample_count, samples_json FROM fixations LIMIT 1`,
	).Scan(&stream, &reason, &duration, &cx, &sampleCount, &samplesJSON))
	assert.Equal(t, "s1", stream)
	assert.Equal(t, "rel_threshold", reason)
	assert.Equal(t, 150.5, duration)
	assert.Equal(t, 0.25, cx)
	assert.Equal(t, 3, sampleCount)

	var samples []fixation.Sample
	require.NoError(t, json.Unmarshal([]byte(samplesJSON), &samples))
	assert.Equal(t, sampleEvent().Fixation.Samples, samples)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w}

	require.NoError(t, sink.Write(context.Background(), sampleEvent()))
	require.NoError(t, sink.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("s1"), w.msgs[0].Key)

	var got FixationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, sampleEvent(), got)
	assert.True(t, w.closed)
}

type memorySink struct {
	name   string
	events []FixationEvent
	err    error
	closed bool
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Write(_ context.Context, e FixationEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestRecorder_FansOutToAllSinks(t *testing.T) {
	a, b := &memorySink{name: "a"}, &memorySink{name: "b"}
	in := make(chan FixationEvent, 2)
	in <- sampleEvent()
	in <- sampleEvent()
	close(in)

	r := NewRecorder([]Sink{a, b}, in, zap.NewNop())
	require.NoError(t, r.Run(context.Background()))

	assert.Len(t, a.events, 2)
	assert.Len(t, b.events, 2)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRecorder_StopsOnSinkError(t *testing.T) {
	boom := errors.New("disk full")
	bad := &memorySink{name: "bad", err: boom}
	in := make(chan FixationEvent, 1)
	in <- sampleEvent()

	r := NewRecorder([]Sink{bad}, in, zap.NewNop())
	err := r.Run(context.Background())

	assert.ErrorIs(t, err, ErrSinkWriteFailed)
	assert.ErrorIs(t, err, boom)
	assert.True(t, bad.closed)
}
