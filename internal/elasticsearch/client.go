// Package elasticsearch wraps go-elasticsearch with the handful of operations the
// service needs: ping, index bootstrap, bulk writes and typed searches.
package elasticsearch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/retry"
)

// Client is safe for concurrent use and is shared across requests.
type Client struct {
	es      *es.Client
	url     string
	log     logger.Logger
	metrics *metrics.Metrics
}

// ClusterInfo is the subset of the root endpoint response that is logged at startup.
type ClusterInfo struct {
	Name        string `json:"name"`
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

// ErrInvalidCACert is returned when the configured CA bundle holds no certificate.
var ErrInvalidCACert = errors.New("no certificates found in CA bundle")

// NewClient creates a client and verifies the connection, retrying the ping with
// exponential backoff.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*Client, error) {
	client, err := New(cfg, log)
	if err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	client.log.Info("Verifying Elasticsearch connection", logger.String("url", client.url))

	if retryErr := retry.Retry(ctx, *cfg.RetryConfig, func() error {
		return client.ping(ctx, cfg.PingTimeout)
	}); retryErr != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch after retries: %w", retryErr)
	}

	client.log.Info("Elasticsearch connection established", logger.String("url", client.url))
	return client, nil
}

// New creates a client without contacting the cluster.
func New(cfg Config, log logger.Logger) (*Client, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	transport, err := createTransport(cfg)
	if err != nil {
		return nil, err
	}

	// Only the startup ping retries. Search and bulk calls fail on the first error.
	clientConfig := es.Config{
		Transport:    transport,
		DisableRetry: true,
	}

	url := ""
	if cfg.CloudID != "" {
		clientConfig.CloudID = cfg.CloudID
		url = "cloud:" + cfg.CloudID
	} else {
		url = normalizeURL(cfg.URL)
		clientConfig.Addresses = []string{url}
	}

	switch {
	case cfg.APIKey != "":
		clientConfig.APIKey = cfg.APIKey
	case cfg.Username != "" && cfg.Password != "":
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	esClient, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &Client{es: esClient, url: url, log: log}, nil
}

// WithMetrics attaches collectors for search calls and returns c.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// URL returns the normalized cluster address.
func (c *Client) URL() string {
	return c.url
}

// normalizeURL adds the http:// scheme when missing.
func normalizeURL(url string) string {
	if url == "" {
		return defaultURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func createTransport(cfg Config) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	if len(cfg.CACert) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(cfg.CACert) {
			return nil, ErrInvalidCACert
		}
		transport.TLSClientConfig.RootCAs = pool
	}

	return transport, nil
}

// Ping verifies the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.ping(ctx, 0)
}

func (c *Client) ping(ctx context.Context, timeout time.Duration) error {
	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := c.es.Ping(c.es.Ping.WithContext(pingCtx))
	if err != nil {
		c.log.Debug("Elasticsearch ping failed", logger.Error(err))
		return transportError("ping", err)
	}
	defer closeBody(res.Body, c.log)

	if res.IsError() {
		respErr := newResponseError(res)
		c.log.Debug("Elasticsearch ping returned error",
			logger.Int("status", respErr.StatusCode),
			logger.String("body", respErr.Body),
		)
		return respErr
	}

	return nil
}

// Info returns the cluster name and version.
func (c *Client) Info(ctx context.Context) (*ClusterInfo, error) {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return nil, transportError("info", err)
	}
	defer closeBody(res.Body, c.log)

	if res.IsError() {
		return nil, newResponseError(res)
	}

	var info ClusterInfo
	if decodeErr := json.NewDecoder(res.Body).Decode(&info); decodeErr != nil {
		return nil, fmt.Errorf("decode cluster info: %w", decodeErr)
	}
	return &info, nil
}

type closer interface {
	Close() error
}

func closeBody(body closer, log logger.Logger) {
	if err := body.Close(); err != nil {
		log.Debug("Failed to close response body", logger.Error(err))
	}
}
