package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/yelp-search/internal/config"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

// ElasticsearchConfig converts the application settings into client settings,
// reading the CA bundle when one is configured.
func ElasticsearchConfig(cfg *config.ElasticsearchConfig) (elasticsearch.Config, error) {
	esCfg := elasticsearch.Config{
		URL:            cfg.URL,
		APIKey:         cfg.APIKey,
		CloudID:        cfg.CloudID,
		Username:       cfg.Username,
		Password:       cfg.Password,
		PingTimeout:    cfg.PingTimeout,
		RequestTimeout: cfg.RequestTimeout,
	}

	if cfg.CACertFile != "" {
		pem, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return elasticsearch.Config{}, fmt.Errorf("read CA certificate: %w", err)
		}
		esCfg.CACert = pem
	}

	return esCfg, nil
}

// SetupElasticsearch connects to the cluster and logs what it found.
func SetupElasticsearch(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics) (*elasticsearch.Client, error) {
	esCfg, err := ElasticsearchConfig(&cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}

	client, err := elasticsearch.NewClient(ctx, esCfg, log)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	client.WithMetrics(m)

	info, infoErr := client.Info(ctx)
	if infoErr != nil {
		log.Warn("Failed to read cluster info", logger.Error(infoErr))
		return client, nil
	}
	log.Info("Connected to Elasticsearch",
		logger.String("url", client.URL()),
		logger.String("node", info.Name),
		logger.String("cluster", info.ClusterName),
		logger.String("version", info.Version.Number),
	)
	return client, nil
}

// NewRegistry builds the schema registry from configuration.
func NewRegistry(cfg *config.Config) *schema.Registry {
	return schema.NewRegistry(
		schema.WithIndexPrefix(cfg.Elasticsearch.IndexPrefix),
		schema.WithIdentity(schema.IdentityMode(cfg.Ingest.Identity)),
		schema.WithShards(cfg.Elasticsearch.Shards, cfg.Elasticsearch.Replicas),
	)
}

// NewSearcher returns client, wrapped in a circuit breaker when one is enabled.
func NewSearcher(cfg *config.Config, client *elasticsearch.Client, log logger.Logger, m *metrics.Metrics) elasticsearch.Searcher {
	if !cfg.Breaker.Enabled {
		return client
	}

	log.Info("Circuit breaker enabled for searches",
		logger.Float64("failure_ratio", cfg.Breaker.FailureRatio),
		logger.Duration("open_timeout", cfg.Breaker.Timeout),
	)
	return elasticsearch.NewBreakerSearcher(client, elasticsearch.BreakerConfig{
		Name:         "elasticsearch-search",
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  cfg.Breaker.MinRequests,
	}, log, m)
}
