// Package metrics holds the Prometheus collectors shared by the query service and the
// ingest CLI. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yelp"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"

	ResultIndexed = "indexed"
	ResultFailed  = "failed"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all service collectors.
type Metrics struct {
	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Backend
	SearchRequests *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
	BreakerState   *prometheus.GaugeVec

	// Ingest
	IngestDocuments *prometheus.CounterVec
	IngestBatches   *prometheus.CounterVec
	IngestDuration  *prometheus.HistogramVec

	// Cache
	CacheLookups *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector with reg. Passing a fresh prometheus.NewRegistry()
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		SearchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Backend search calls by index and outcome.",
		}, []string{"index", "outcome"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Backend search latency by index.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"index"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
		IngestDocuments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Documents submitted by bulk ingest, by index and result.",
		}, []string{"index", "result"}),
		IngestBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_batches_total",
			Help:      "Bulk batches submitted, by index.",
		}, []string{"index"}),
		IngestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_file_duration_seconds",
			Help:      "Time to ingest one source file, by index.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"index"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by operation and result.",
		}, []string{"operation", "result"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveSearch records one backend search call.
func (m *Metrics) ObserveSearch(index, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(index, outcome).Inc()
	m.SearchDuration.WithLabelValues(index).Observe(elapsed.Seconds())
}

// SetBreakerState records the breaker state for name.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

// ObserveBatch records one submitted bulk batch.
func (m *Metrics) ObserveBatch(index string, indexed, failed int) {
	if m == nil {
		return
	}
	m.IngestBatches.WithLabelValues(index).Inc()
	m.IngestDocuments.WithLabelValues(index, ResultIndexed).Add(float64(indexed))
	m.IngestDocuments.WithLabelValues(index, ResultFailed).Add(float64(failed))
}

// ObserveRejected records documents that failed before reaching the backend.
func (m *Metrics) ObserveRejected(index string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.IngestDocuments.WithLabelValues(index, ResultFailed).Add(float64(n))
}

// ObserveIngestFile records the duration of one file.
func (m *Metrics) ObserveIngestFile(index string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IngestDuration.WithLabelValues(index).Observe(elapsed.Seconds())
}

// ObserveCache records one cache lookup.
func (m *Metrics) ObserveCache(operation, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(operation, result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
