package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sanspareilsmyn/fixationlens/internal/config"
)

const createFixationsTable = `
CREATE TABLE IF NOT EXISTS fixations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT    NOT NULL,
	stream        TEXT    NOT NULL,
	task          TEXT,
	start_time    REAL    NOT NULL,
	end_time      REAL    NOT NULL,
	duration      REAL    NOT NULL,
	centroid_x    REAL    NOT NULL,
	centroid_y    REAL    NOT NULL,
	dispersion    REAL    NOT NULL,
	reason        TEXT    NOT NULL,
	sample_count  INTEGER NOT NULL,
	samples_json  TEXT
);
CREATE INDEX IF NOT EXISTS idx_fixations_run_stream ON fixations (run_id, stream, start_time);
`

// SQLiteSink stores fixations in a local SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if needed) the database and its schema.
func NewSQLiteSink(cfg config.SQLiteSinkConfig) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createFixationsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", ErrSinkCreationFailed, err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Write(ctx context.Context, e FixationEvent) error {
	f := e.Fixation
	samples, err := json.Marshal(f.Samples)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fixations (
			run_id, stream, task, start_time, end_time, duration,
			centroid_x, centroid_y, dispersion, reason, sample_count, samples_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Stream, e.Task, f.StartTime, f.EndTime, f.Duration,
		f.Centroid.X, f.Centroid.Y, f.Dispersion, string(f.Reason), len(f.Samples), string(samples),
	)
	return err
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
