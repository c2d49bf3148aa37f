// Package ingest streams newline-delimited JSON dataset files into their indices
// through the bulk API.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// ErrAborted marks a file whose load stopped because a bulk call failed.
var ErrAborted = errors.New("ingest aborted")

const tracerName = "github.com/jonesrussell/yelp-search/internal/ingest"

// BulkWriter submits one batch of index actions.
type BulkWriter interface {
	Bulk(ctx context.Context, items []elasticsearch.BulkItem) (*elasticsearch.BulkResult, error)
}

// Recorder persists the outcome of each ingested file.
type Recorder interface {
	Record(ctx context.Context, stats *Stats) error
}

// Config holds engine settings.
type Config struct {
	BatchSize       int
	MaxErrorSamples int
	MaxLineBytes    int
}

const (
	defaultBatchSize       = 2000
	defaultMaxErrorSamples = 20
	defaultMaxLineBytes    = 64 << 20
	initialLineBuffer      = 64 << 10
)

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxErrorSamples <= 0 {
		c.MaxErrorSamples = defaultMaxErrorSamples
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = defaultMaxLineBytes
	}
}

// Action is one document read from a source line. Err is set when the line is not a
// JSON object; such actions are counted as failed and never submitted.
type Action struct {
	Index  string
	ID     string
	HasID  bool
	Source json.RawMessage
	Line   int
	Err    error
}

// Engine loads dataset files. Batches are submitted sequentially.
type Engine struct {
	writer   BulkWriter
	registry *schema.Registry
	cfg      Config
	log      logger.Logger
	metrics  *metrics.Metrics
	recorder Recorder
}

// NewEngine creates an ingest engine.
func NewEngine(writer BulkWriter, registry *schema.Registry, cfg Config, log logger.Logger) *Engine {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		writer:   writer,
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// WithMetrics attaches ingest collectors and returns e.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	return e
}

// WithRecorder attaches a run history recorder and returns e.
func (e *Engine) WithRecorder(r Recorder) *Engine {
	e.recorder = r
	return e
}

// Ingest loads every line of src into the index of entity. On abort the returned
// Stats hold the counts of the batches submitted before the failure.
func (e *Engine) Ingest(ctx context.Context, src io.Reader, entity schema.EntityType) (*Stats, error) {
	return e.ingest(ctx, uuid.NewString(), src, entity, "")
}

func (e *Engine) ingest(ctx context.Context, runID string, src io.Reader, entity schema.EntityType, file string) (*Stats, error) {
	ent, err := e.registry.Lookup(entity)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "ingest.file")
	span.SetAttributes(
		attribute.String("yelp.entity", string(entity)),
		attribute.String("yelp.index", ent.Index),
		attribute.String("yelp.run_id", runID),
	)
	defer span.End()

	stats := &Stats{
		RunID:     runID,
		Entity:    entity,
		Index:     ent.Index,
		File:      file,
		StartedAt: time.Now().UTC(),
	}
	log := e.log.With(
		logger.String("run_id", runID),
		logger.String("entity", string(entity)),
		logger.String("index", ent.Index),
	)
	log.Info("Ingest started", logger.String("file", file))

	runErr := e.run(ctx, src, ent, stats, log)

	stats.Duration = time.Since(stats.StartedAt)
	e.metrics.ObserveIngestFile(ent.Index, stats.Duration)
	span.SetAttributes(
		attribute.Int("yelp.indexed", stats.Indexed),
		attribute.Int("yelp.failed", stats.Failed),
	)

	if runErr != nil {
		stats.Aborted = true
		stats.AbortReason = runErr.Error()
		span.SetStatus(codes.Error, runErr.Error())
		log.Error("Ingest aborted",
			logger.Int("indexed", stats.Indexed),
			logger.Int("failed", stats.Failed),
			logger.Int("batches", stats.Batches),
			logger.Error(runErr),
		)
		runErr = fmt.Errorf("%w: %s: %w", ErrAborted, ent.Index, runErr)
	} else {
		log.Info("Ingest complete",
			logger.Int("indexed", stats.Indexed),
			logger.Int("failed", stats.Failed),
			logger.Int("batches", stats.Batches),
			logger.Duration("duration", stats.Duration),
		)
	}

	e.record(ctx, stats, log)
	return stats, runErr
}

// run pipes the producer into the batching consumer.
func (e *Engine) run(ctx context.Context, src io.Reader, ent schema.Entity, stats *Stats, log logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	actions := make(chan Action, e.cfg.BatchSize)
	produced := make(chan error, 1)
	go func() {
		produced <- e.produce(ctx, src, ent, actions)
	}()

	batch := make([]Action, 0, e.cfg.BatchSize)
	for action := range actions {
		if action.Err != nil {
			stats.addRejected(action, e.cfg.MaxErrorSamples)
			e.metrics.ObserveRejected(ent.Index, 1)
			log.Debug("Skipping malformed line", logger.Int("line", action.Line), logger.Error(action.Err))
			continue
		}

		batch = append(batch, action)
		if len(batch) < e.cfg.BatchSize {
			continue
		}
		if err := e.flush(ctx, batch, stats, log); err != nil {
			cancel()
			<-produced
			return err
		}
		batch = batch[:0]
	}

	if len(batch) > 0 {
		if err := e.flush(ctx, batch, stats, log); err != nil {
			<-produced
			return err
		}
	}

	if err := <-produced; err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	return nil
}

// produce scans src line by line. It closes out when done.
func (e *Engine) produce(ctx context.Context, src io.Reader, ent schema.Entity, out chan<- Action) error {
	defer close(out)

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, min(initialLineBuffer, e.cfg.MaxLineBytes)), e.cfg.MaxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		select {
		case out <- buildAction(ent, raw, line):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return scanner.Err()
}

// buildAction copies raw because the scanner reuses its buffer.
func buildAction(ent schema.Entity, raw []byte, line int) Action {
	action := Action{Index: ent.Index, Line: line}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(raw, &record); err != nil {
		action.Err = fmt.Errorf("line %d is not a JSON object: %w", line, err)
		return action
	}
	if record == nil {
		action.Err = fmt.Errorf("line %d is not a JSON object", line)
		return action
	}

	action.Source = append(json.RawMessage(nil), raw...)
	action.ID, action.HasID = ent.DocumentID(record)
	return action
}

func (e *Engine) flush(ctx context.Context, batch []Action, stats *Stats, log logger.Logger) error {
	items := make([]elasticsearch.BulkItem, len(batch))
	for i := range batch {
		items[i] = elasticsearch.BulkItem{
			Index:  batch[i].Index,
			ID:     batch[i].ID,
			HasID:  batch[i].HasID,
			Source: batch[i].Source,
		}
	}

	result, err := e.writer.Bulk(ctx, items)
	if err != nil {
		return fmt.Errorf("bulk batch %d: %w", stats.Batches+1, err)
	}

	stats.Batches++
	stats.Indexed += result.Indexed
	for _, f := range result.Failed {
		stats.addFailure(batch, f, e.cfg.MaxErrorSamples)
	}
	e.metrics.ObserveBatch(stats.Index, result.Indexed, len(result.Failed))

	log.Debug("Batch submitted",
		logger.Int("batch", stats.Batches),
		logger.Int("size", len(batch)),
		logger.Int("indexed", result.Indexed),
		logger.Int("failed", len(result.Failed)),
	)
	return nil
}

func (e *Engine) record(ctx context.Context, stats *Stats, log logger.Logger) {
	if e.recorder == nil {
		return
	}
	// The run is recorded even when the caller's context was cancelled.
	if err := e.recorder.Record(context.WithoutCancel(ctx), stats); err != nil {
		log.Warn("Failed to record ingest run", logger.Error(err))
	}
}
