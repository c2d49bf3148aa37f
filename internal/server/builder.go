package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
)

// Builder provides a fluent API for assembling a Server.
type Builder struct {
	config      *Config
	logger      logger.Logger
	metrics     *metrics.Metrics
	metricsPath string
	checks      []HealthCheck
	setupRoutes func(*gin.Engine)
}

// NewBuilder creates a builder for serviceName listening on port.
func NewBuilder(serviceName string, port int) *Builder {
	return &Builder{config: &Config{ServiceName: serviceName, Port: port, CORS: CORSConfig{Enabled: true}}}
}

// WithConfig replaces the server configuration.
func (b *Builder) WithConfig(cfg *Config) *Builder {
	b.config = cfg
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.logger = log
	return b
}

// WithMetrics records HTTP metrics into m and serves them at path.
func (b *Builder) WithMetrics(m *metrics.Metrics, path string) *Builder {
	b.metrics = m
	b.metricsPath = path
	return b
}

// WithTimeouts sets the read, write and idle timeouts.
func (b *Builder) WithTimeouts(read, write, idle time.Duration) *Builder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithHealthCheck adds a readiness check.
func (b *Builder) WithHealthCheck(name string, critical bool, ping func(context.Context) error) *Builder {
	b.checks = append(b.checks, HealthCheck{Name: name, Critical: critical, Ping: ping})
	return b
}

// WithRoutes sets the service route setup function.
func (b *Builder) WithRoutes(setupRoutes func(*gin.Engine)) *Builder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the server with health, metrics and service routes.
func (b *Builder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.NewNop()
	}
	b.config.SetDefaults()

	setup := func(router *gin.Engine) {
		RegisterHealthRoutes(router, HealthOptions{
			ServiceName:    b.config.ServiceName,
			ServiceVersion: b.config.ServiceVersion,
			Checks:         b.checks,
		})
		if b.metrics != nil && b.metricsPath != "" {
			router.GET(b.metricsPath, gin.WrapH(b.metrics.Handler()))
		}
		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}
	}

	return NewServer(b.config, b.logger, b.metrics, setup)
}
