package config

import (
	"fmt"
	"time"
)

// Identity modes for entities whose source records carry no natural key.
const (
	IdentityLegacy    = "legacy"
	IdentityComposite = "composite"
)

// Config holds configuration for both the query service and the ingest CLI.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Ingest        IngestConfig        `yaml:"ingest"`
	Logging       LoggingConfig       `yaml:"logging"`
	CORS          CORSConfig          `yaml:"cors"`
	Cache         CacheConfig         `yaml:"cache"`
	Database      DatabaseConfig      `yaml:"database"`
	Breaker       BreakerConfig       `yaml:"breaker"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// ServiceConfig holds HTTP service settings.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"           env:"APP_VERSION"`
	Port            int           `yaml:"port"              env:"PORT"`
	Debug           bool          `yaml:"debug"             env:"DEBUG"`
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"     env:"MAX_PAGE_SIZE"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

// ElasticsearchConfig holds backend connection settings.
type ElasticsearchConfig struct {
	URL            string        `yaml:"url"             env:"ELASTIC_URL,ELASTICSEARCH_URL"`
	APIKey         string        `yaml:"api_key"         env:"API_KEY,ELASTICSEARCH_API_KEY"`
	CloudID        string        `yaml:"cloud_id"        env:"ELASTIC_CLOUD_ID"`
	Username       string        `yaml:"username"        env:"ELASTICSEARCH_USERNAME"`
	Password       string        `yaml:"password"        env:"ELASTICSEARCH_PASSWORD"`
	CACertFile     string        `yaml:"ca_cert_file"    env:"ELASTICSEARCH_CA_CERT"`
	IndexPrefix    string        `yaml:"index_prefix"    env:"INDEX_PREFIX"`
	Shards         int           `yaml:"shards"`
	Replicas       int           `yaml:"replicas"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"ELASTICSEARCH_REQUEST_TIMEOUT"`
}

// IngestConfig holds bulk loading settings.
type IngestConfig struct {
	DataDir         string `yaml:"data_dir"          env:"DATA_DIR"`
	Dataset         string `yaml:"dataset"`
	BatchSize       int    `yaml:"batch_size"        env:"INGEST_BATCH_SIZE"`
	MaxErrorSamples int    `yaml:"max_error_samples"`
	MaxLineBytes    int    `yaml:"max_line_bytes"`
	Identity        string `yaml:"identity"          env:"INGEST_IDENTITY"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Disabled         bool     `yaml:"disabled"`
	AllowedOrigins   []string `yaml:"allowed_origins"   env:"CORS_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// CacheConfig holds the optional Redis result cache settings.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"    env:"CACHE_ENABLED"`
	Address   string        `yaml:"address"    env:"REDIS_ADDRESS"`
	Password  string        `yaml:"password"   env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db"         env:"REDIS_DB"`
	TTL       time.Duration `yaml:"ttl"        env:"CACHE_TTL"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// DatabaseConfig holds the optional PostgreSQL ingest history settings.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"  env:"DB_ENABLED"`
	Host     string `yaml:"host"     env:"DB_HOST"`
	Port     int    `yaml:"port"     env:"DB_PORT"`
	User     string `yaml:"user"     env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name"     env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode"  env:"DB_SSLMODE"`
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// BreakerConfig holds the circuit breaker wrapped around backend searches.
type BreakerConfig struct {
	Enabled      bool          `yaml:"enabled"       env:"BREAKER_ENABLED"`
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled" env:"METRICS_DISABLED"`
	Path     string `yaml:"path"`
}

// Load loads configuration from path (optional), .env files and the environment,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

const (
	defaultServiceName     = "yelp-search"
	defaultServiceVersion  = "1.0.0"
	defaultPort            = 4000
	defaultPageSize        = 10
	defaultMaxPageSize     = 100
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultESURL           = "http://localhost:9200"
	defaultESPingTimeout   = 5 * time.Second
	defaultShards          = 1
	defaultReplicas        = 1
	defaultDataDir         = "data"
	defaultDataset         = "yelp_academic_dataset"
	defaultBatchSize       = 2000
	defaultMaxErrorSamples = 20
	defaultMaxLineBytes    = 64 << 20
	defaultCacheAddress    = "localhost:6379"
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheKeyPrefix  = "yelp-search:"
	defaultDBPort          = 5432
	defaultDBSSLMode       = "disable"
	defaultBreakerRequests = 1
	defaultBreakerInterval = 60 * time.Second
	defaultBreakerTimeout  = 30 * time.Second
	defaultBreakerRatio    = 0.5
	defaultBreakerMinReqs  = 5
	defaultMetricsPath     = "/metrics"
	defaultCORSMaxAge      = 43200
)

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setElasticsearchDefaults(&cfg.Elasticsearch)
	setIngestDefaults(&cfg.Ingest)
	setCacheDefaults(&cfg.Cache)
	setBreakerDefaults(&cfg.Breaker)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"http://localhost:8081"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = defaultCORSMaxAge
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDBPort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = defaultDBSSLMode
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.DefaultPageSize == 0 {
		s.DefaultPageSize = defaultPageSize
	}
	if s.MaxPageSize == 0 {
		s.MaxPageSize = defaultMaxPageSize
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = defaultIdleTimeout
	}
}

func setElasticsearchDefaults(e *ElasticsearchConfig) {
	if e.URL == "" && e.CloudID == "" {
		e.URL = defaultESURL
	}
	if e.Shards == 0 {
		e.Shards = defaultShards
	}
	if e.Replicas == 0 {
		e.Replicas = defaultReplicas
	}
	if e.PingTimeout == 0 {
		e.PingTimeout = defaultESPingTimeout
	}
}

func setIngestDefaults(i *IngestConfig) {
	if i.DataDir == "" {
		i.DataDir = defaultDataDir
	}
	if i.Dataset == "" {
		i.Dataset = defaultDataset
	}
	if i.BatchSize == 0 {
		i.BatchSize = defaultBatchSize
	}
	if i.MaxErrorSamples == 0 {
		i.MaxErrorSamples = defaultMaxErrorSamples
	}
	if i.MaxLineBytes == 0 {
		i.MaxLineBytes = defaultMaxLineBytes
	}
	if i.Identity == "" {
		i.Identity = IdentityLegacy
	}
}

func setCacheDefaults(c *CacheConfig) {
	if c.Address == "" {
		c.Address = defaultCacheAddress
	}
	if c.TTL == 0 {
		c.TTL = defaultCacheTTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultCacheKeyPrefix
	}
}

func setBreakerDefaults(b *BreakerConfig) {
	if b.MaxRequests == 0 {
		b.MaxRequests = defaultBreakerRequests
	}
	if b.Interval == 0 {
		b.Interval = defaultBreakerInterval
	}
	if b.Timeout == 0 {
		b.Timeout = defaultBreakerTimeout
	}
	if b.FailureRatio == 0 {
		b.FailureRatio = defaultBreakerRatio
	}
	if b.MinRequests == 0 {
		b.MinRequests = defaultBreakerMinReqs
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := ValidatePositive("service.max_page_size", c.Service.MaxPageSize); err != nil {
		return err
	}
	if c.Service.DefaultPageSize < 1 || c.Service.DefaultPageSize > c.Service.MaxPageSize {
		return &ValidationError{
			Field:   "service.default_page_size",
			Message: fmt.Sprintf("must be between 1 and %d", c.Service.MaxPageSize),
		}
	}
	if c.Elasticsearch.URL == "" && c.Elasticsearch.CloudID == "" {
		return &ValidationError{Field: "elasticsearch.url", Message: "url or cloud_id is required"}
	}
	if err := ValidatePositive("ingest.batch_size", c.Ingest.BatchSize); err != nil {
		return err
	}
	if c.Ingest.Identity != IdentityLegacy && c.Ingest.Identity != IdentityComposite {
		return &ValidationError{
			Field:   "ingest.identity",
			Message: fmt.Sprintf("must be %q or %q", IdentityLegacy, IdentityComposite),
		}
	}
	if c.Cache.Enabled {
		if err := ValidateRequired("cache.address", c.Cache.Address); err != nil {
			return err
		}
	}
	if c.Database.Enabled {
		if err := ValidateRequired("database.host", c.Database.Host); err != nil {
			return err
		}
		if err := ValidateRequired("database.name", c.Database.Name); err != nil {
			return err
		}
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return &ValidationError{Field: "breaker.failure_ratio", Message: "must be in (0, 1]"}
	}
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return ValidateLogFormat(c.Logging.Format)
}
