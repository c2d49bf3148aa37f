package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/yelp-search/internal/metrics"
)

func TestMetrics_ObserveBatch(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())

	m.ObserveBatch("yelp-review", 1998, 2)
	m.ObserveBatch("yelp-review", 500, 0)
	m.ObserveRejected("yelp-review", 3)

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.IngestBatches.WithLabelValues("yelp-review")), 0)
	assert.InDelta(t, 2498.0, testutil.ToFloat64(m.IngestDocuments.WithLabelValues("yelp-review", metrics.ResultIndexed)), 0)
	assert.InDelta(t, 5.0, testutil.ToFloat64(m.IngestDocuments.WithLabelValues("yelp-review", metrics.ResultFailed)), 0)
}

func TestMetrics_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveSearch("yelp-business", metrics.OutcomeSuccess, time.Millisecond)
		m.ObserveBatch("yelp-business", 1, 0)
		m.ObserveCache("reviews", metrics.CacheHit)
		m.SetBreakerState("es", 2)
		m.ObserveHTTP("GET", "/health", "200", time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.ObserveSearch("yelp-review", metrics.OutcomeSuccess, 20*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(string(body), `yelp_search_requests_total{index="yelp-review",outcome="success"} 1`))
}
