package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/yelp-search/internal/api"
	"github.com/jonesrussell/yelp-search/internal/config"
	"github.com/jonesrussell/yelp-search/internal/server"
)

// SetupHTTPServer builds the HTTP server for app. redisClient, when set, adds a
// non-critical readiness check.
func SetupHTTPServer(cfg *config.Config, app *App, redisClient *redis.Client) *server.Server {
	handler := api.NewHandler(app.Search, app.Logger)

	builder := server.NewBuilder(cfg.Service.Name, cfg.Service.Port).
		WithConfig(ServerConfig(cfg)).
		WithLogger(app.Logger).
		WithHealthCheck("elasticsearch", true, app.ES.Ping).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, handler)
		})

	if redisClient != nil {
		builder.WithHealthCheck("redis", false, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if app.Metrics != nil {
		builder.WithMetrics(app.Metrics, cfg.Metrics.Path)
	}

	return builder.Build()
}

// ServerConfig converts the application settings into server settings.
func ServerConfig(cfg *config.Config) *server.Config {
	return &server.Config{
		Port:           cfg.Service.Port,
		Debug:          cfg.Service.Debug,
		ReadTimeout:    cfg.Service.ReadTimeout,
		WriteTimeout:   cfg.Service.WriteTimeout,
		IdleTimeout:    cfg.Service.IdleTimeout,
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		CORS: server.CORSConfig{
			Enabled:          !cfg.CORS.Disabled,
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
		},
	}
}
