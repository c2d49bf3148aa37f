package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/yelp-search/internal/bootstrap"
	"github.com/jonesrussell/yelp-search/internal/ingest"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// ErrNoDatasetFiles is returned when no dataset file was found for any entity.
var ErrNoDatasetFiles = errors.New("no dataset files found")

func newIngestCommand(a *app) *cobra.Command {
	var (
		dataDir   string
		dataset   string
		entities  []string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Create missing indices and bulk load the dataset files",
		Long: `Loads <data-dir>/<dataset>_<entity>.json for each entity into its index.

Re-running the load upserts the same documents. Missing files are skipped; a file
that cannot be loaded does not stop the others.

Examples:
  yelpctl ingest
  yelpctl ingest --data-dir ./data --entity business --entity review`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			types, err := parseEntities(entities)
			if err != nil {
				return err
			}
			if dataDir == "" {
				dataDir = a.cfg.Ingest.DataDir
			}
			if dataset == "" {
				dataset = a.cfg.Ingest.Dataset
			}
			if batchSize <= 0 {
				batchSize = a.cfg.Ingest.BatchSize
			}

			client, err := a.connect(ctx)
			if err != nil {
				return err
			}

			registry := a.registry()
			created, err := registry.EnsureIndices(ctx, client)
			if err != nil {
				return err
			}
			if len(created) > 0 {
				a.log.Info("Created indices", logger.Strings("indices", created))
			}

			engine := ingest.NewEngine(client, registry, ingest.Config{
				BatchSize:       batchSize,
				MaxErrorSamples: a.cfg.Ingest.MaxErrorSamples,
				MaxLineBytes:    a.cfg.Ingest.MaxLineBytes,
			}, a.log)

			db, store, err := bootstrap.SetupHistory(ctx, a.cfg, a.log)
			if err != nil {
				a.log.Warn("Ingest history unavailable, runs will not be recorded", logger.Error(err))
			}
			if store != nil {
				defer func() { _ = db.Close() }()
				engine.WithRecorder(store)
			}

			results, runErr := engine.IngestDir(ctx, dataDir, dataset, types)
			renderIngestSummary(cmd.OutOrStdout(), results)

			if runErr != nil {
				return fmt.Errorf("ingest: %w", runErr)
			}
			if len(results) == 0 {
				return fmt.Errorf("%w in %s", ErrNoDatasetFiles, dataDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding the dataset files (default from config)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset file name prefix (default from config)")
	cmd.Flags().StringSliceVar(&entities, "entity", nil, "entity to load; repeatable (default all)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "documents per bulk request (default from config)")

	return cmd
}

func parseEntities(names []string) ([]schema.EntityType, error) {
	types := make([]schema.EntityType, 0, len(names))
	for _, name := range names {
		t, err := schema.ParseEntityType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// renderIngestSummary prints one row per file, then the sampled document errors.
func renderIngestSummary(w io.Writer, results []*ingest.Stats) {
	if len(results) == 0 {
		return
	}

	t := newTable(w, table.Row{"Entity", "Index", "File", "Indexed", "Failed", "Batches", "Duration", "Status"})
	var indexed, failed int
	for _, s := range results {
		status := "ok"
		switch {
		case s.Aborted:
			status = "aborted: " + s.AbortReason
		case s.Failed > 0:
			status = "partial"
		}
		t.AppendRow(table.Row{
			s.Entity, s.Index, filepath.Base(s.File), s.Indexed, s.Failed, s.Batches, s.Duration.Round(time.Millisecond), status,
		})
		indexed += s.Indexed
		failed += s.Failed
	}
	t.AppendFooter(table.Row{"", "", "Total", indexed, failed})
	t.Render()

	var samples []table.Row
	for _, s := range results {
		for _, e := range s.Errors {
			samples = append(samples, table.Row{s.Entity, e.Line, e.ID, e.Type, truncate(e.Reason, oneStarPreviewLength)})
		}
	}
	if len(samples) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "\nDocument errors (sampled):")
	errTable := newTable(w, table.Row{"Entity", "Line", "ID", "Type", "Reason"})
	errTable.AppendRows(samples)
	errTable.Render()
}
