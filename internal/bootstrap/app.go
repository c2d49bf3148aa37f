package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonesrussell/yelp-search/internal/config"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/profiling"
	"github.com/jonesrussell/yelp-search/internal/schema"
	"github.com/jonesrussell/yelp-search/internal/server"
	"github.com/jonesrussell/yelp-search/internal/service"
)

// App is the query service context, built once at startup and shared by every
// request.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	ES       *elasticsearch.Client
	Registry *schema.Registry
	Search   *service.SearchService
	Server   *server.Server

	closers []func() error
}

// NewMetrics creates the collectors on a fresh registry, or returns nil when metrics
// are disabled.
func NewMetrics(cfg *config.Config) *metrics.Metrics {
	if cfg.Metrics.Disabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return metrics.New(reg)
}

// NewApp connects to every configured backend and assembles the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log, Metrics: NewMetrics(cfg), Registry: NewRegistry(cfg)}

	esClient, err := SetupElasticsearch(ctx, cfg, log, app.Metrics)
	if err != nil {
		return nil, err
	}
	app.ES = esClient

	searcher := NewSearcher(cfg, esClient, log, app.Metrics)
	app.Search = service.NewSearchService(searcher, app.Registry, service.Config{
		DefaultPageSize: cfg.Service.DefaultPageSize,
		MaxPageSize:     cfg.Service.MaxPageSize,
	}, log)

	redisClient, resultCache, err := SetupCache(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		app.Search.WithCache(resultCache, app.Metrics)
		app.closers = append(app.closers, redisClient.Close)
	}

	app.Server = SetupHTTPServer(cfg, app, redisClient)
	return app, nil
}

// Close releases backend connections.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.Logger.Warn("Failed to close connection", logger.Error(err))
		}
	}
}

// Start runs the query service until SIGINT, SIGTERM or ctx cancellation.
func Start(ctx context.Context, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg, "yelp-search-httpd")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	profiler, err := profiling.Start("httpd", profiling.ConfigFromEnv(), log)
	if err != nil {
		log.Warn("Profiling disabled", logger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	log.Info("Starting yelp search service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug),
	)

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer app.Close()

	if runErr := app.Server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Yelp search service stopped")
	return nil
}
