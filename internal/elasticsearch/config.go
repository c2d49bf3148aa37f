package elasticsearch

import (
	"time"

	"github.com/jonesrussell/yelp-search/internal/retry"
)

// Config holds Elasticsearch connection configuration.
type Config struct {
	URL      string
	APIKey   string
	CloudID  string
	Username string
	Password string
	// CACert is a PEM bundle trusted in addition to the system roots.
	CACert []byte

	PingTimeout time.Duration
	// RequestTimeout bounds the wait for response headers. Zero means no timeout.
	RequestTimeout time.Duration

	// RetryConfig controls the startup connection check.
	RetryConfig *retry.Config
}

const (
	defaultURL             = "http://localhost:9200"
	defaultPingTimeout     = 5 * time.Second
	defaultRetryAttempts   = 5
	defaultRetryDelay      = 2 * time.Second
	defaultRetryMaxDelay   = 10 * time.Second
	defaultRetryMultiplier = 2.0
)

// SetDefaults applies default values to the config if not set.
func (c *Config) SetDefaults() {
	if c.URL == "" && c.CloudID == "" {
		c.URL = defaultURL
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.RetryConfig == nil {
		c.RetryConfig = &retry.Config{
			MaxAttempts:  defaultRetryAttempts,
			InitialDelay: defaultRetryDelay,
			MaxDelay:     defaultRetryMaxDelay,
			Multiplier:   defaultRetryMultiplier,
		}
	}
}
