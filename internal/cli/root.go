// Package cli implements yelpctl: dataset ingest, index management, ad-hoc queries
// and ingest history.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/yelp-search/internal/bootstrap"
	"github.com/jonesrussell/yelp-search/internal/config"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// app carries what every subcommand needs. It is filled in by the root command's
// PersistentPreRunE.
type app struct {
	configPath string
	debug      bool

	cfg *config.Config
	log logger.Logger
}

// NewRootCommand builds the yelpctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "yelpctl",
		Short:         "Load the Yelp dataset into Elasticsearch and query it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newIngestCommand(a),
		newIndicesCommand(a),
		newQueryCommand(a),
		newHistoryCommand(a),
	)

	return root
}

// Execute runs yelpctl with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init() error {
	cfg, err := bootstrap.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Logging.Level = "debug"
	}

	// Logs go to stderr so tables on stdout stay clean.
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: a.debug,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a.cfg = cfg
	a.log = log.With(logger.String("service", "yelpctl"))
	return nil
}

func (a *app) connect(ctx context.Context) (*elasticsearch.Client, error) {
	return bootstrap.SetupElasticsearch(ctx, a.cfg, a.log, nil)
}

func (a *app) registry() *schema.Registry {
	return bootstrap.NewRegistry(a.cfg)
}
