package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/yelp-search/internal/cache"
	"github.com/jonesrussell/yelp-search/internal/config"
	"github.com/jonesrussell/yelp-search/internal/history"
	"github.com/jonesrussell/yelp-search/internal/logger"
)

// SetupCache connects to Redis when the cache is enabled. Both results are nil when
// it is disabled.
func SetupCache(ctx context.Context, cfg *config.Config, log logger.Logger) (*redis.Client, cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil, nil
	}

	cacheCfg := cache.Config{
		Address:   cfg.Cache.Address,
		Password:  cfg.Cache.Password,
		DB:        cfg.Cache.DB,
		TTL:       cfg.Cache.TTL,
		KeyPrefix: cfg.Cache.KeyPrefix,
	}
	client, err := cache.NewClient(ctx, cacheCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}

	log.Info("Result cache enabled",
		logger.String("address", cfg.Cache.Address),
		logger.Duration("ttl", cfg.Cache.TTL),
	)
	return client, cache.New(client, cacheCfg), nil
}

// SetupHistory connects to PostgreSQL and applies migrations when the database is
// enabled. Both results are nil when it is disabled.
func SetupHistory(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, *history.Store, error) {
	if !cfg.Database.Enabled {
		return nil, nil, nil
	}

	db, err := history.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if migrateErr := history.Migrate(cfg.Database.DSN(), log); migrateErr != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database: %w", migrateErr)
	}

	log.Info("Ingest history enabled",
		logger.String("host", cfg.Database.Host),
		logger.String("database", cfg.Database.Name),
	)
	return db, history.NewStore(db), nil
}
