package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/yelp-search/internal/ingest"
)

// Run is one recorded file load.
type Run struct {
	ID           uuid.UUID `db:"id"`
	RunID        string    `db:"run_id"`
	Entity       string    `db:"entity"`
	Index        string    `db:"index_name"`
	File         string    `db:"file"`
	Indexed      int       `db:"indexed"`
	Failed       int       `db:"failed"`
	Batches      int       `db:"batches"`
	Aborted      bool      `db:"aborted"`
	AbortReason  string    `db:"abort_reason"`
	ErrorSamples string    `db:"error_samples"`
	StartedAt    time.Time `db:"started_at"`
	DurationMs   int64     `db:"duration_ms"`
}

// Duration returns the recorded load time.
func (r *Run) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// Store persists ingest runs. It implements ingest.Recorder.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a Store.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// Record inserts one row for stats.
func (s *Store) Record(ctx context.Context, stats *ingest.Stats) error {
	samples := stats.Errors
	if samples == nil {
		samples = []ingest.DocumentError{}
	}
	encoded, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("encode error samples: %w", err)
	}

	run := Run{
		ID:           uuid.New(),
		RunID:        stats.RunID,
		Entity:       string(stats.Entity),
		Index:        stats.Index,
		File:         stats.File,
		Indexed:      stats.Indexed,
		Failed:       stats.Failed,
		Batches:      stats.Batches,
		Aborted:      stats.Aborted,
		AbortReason:  stats.AbortReason,
		ErrorSamples: string(encoded),
		StartedAt:    stats.StartedAt,
		DurationMs:   stats.Duration.Milliseconds(),
	}

	query := `
		INSERT INTO ingest_runs (id, run_id, entity, index_name, file, indexed, failed, batches,
			aborted, abort_reason, error_samples, started_at, duration_ms)
		VALUES (:id, :run_id, :entity, :index_name, :file, :indexed, :failed, :batches,
			:aborted, :abort_reason, :error_samples, :started_at, :duration_ms)
	`
	if _, execErr := s.db.NamedExecContext(ctx, query, run); execErr != nil {
		return fmt.Errorf("failed to record ingest run: %w", execErr)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	runs := []Run{}
	query := `
		SELECT id, run_id, entity, index_name, file, indexed, failed, batches,
			aborted, abort_reason, error_samples, started_at, duration_ms
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list ingest runs: %w", err)
	}
	return runs, nil
}
