package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// DefaultDataset is the file name prefix of the Yelp academic dataset.
const DefaultDataset = "yelp_academic_dataset"

// FileName returns the dataset file name for entity, e.g.
// yelp_academic_dataset_review.json.
func FileName(dataset string, entity schema.EntityType) string {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return fmt.Sprintf("%s_%s.json", dataset, entity)
}

// IngestFile loads one file into the index of entity.
func (e *Engine) IngestFile(ctx context.Context, path string, entity schema.EntityType) (*Stats, error) {
	return e.ingestFile(ctx, uuid.NewString(), path, entity)
}

func (e *Engine) ingestFile(ctx context.Context, runID, path string, entity schema.EntityType) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			e.log.Debug("Failed to close source file", logger.String("file", path), logger.Error(closeErr))
		}
	}()

	return e.ingest(ctx, runID, f, entity, path)
}

// IngestDir loads <dir>/<dataset>_<entity>.json for each entity in order. Missing
// files are skipped. An aborted file does not stop the remaining files; all abort
// errors are joined into the returned error.
func (e *Engine) IngestDir(ctx context.Context, dir, dataset string, entities []schema.EntityType) ([]*Stats, error) {
	if len(entities) == 0 {
		entities = schema.AllEntityTypes()
	}

	runID := uuid.NewString()
	e.log.Info("Ingest run started",
		logger.String("run_id", runID),
		logger.String("dir", dir),
		logger.Int("files", len(entities)),
	)

	var (
		results []*Stats
		errs    []error
	)
	for _, entity := range entities {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		path := filepath.Join(dir, FileName(dataset, entity))
		stats, err := e.ingestFile(ctx, runID, path, entity)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			e.log.Warn("Dataset file not found, skipping", logger.String("file", path))
			continue
		case errors.Is(err, ErrAborted):
			errs = append(errs, err)
		case err != nil:
			return results, err
		}
		results = append(results, stats)
	}

	return results, errors.Join(errs...)
}
