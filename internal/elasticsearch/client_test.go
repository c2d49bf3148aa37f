package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/query"
)

// newFakeCluster starts an HTTP server that answers like Elasticsearch.
func newFakeCluster(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL}, logger.NewNop())
	require.NoError(t, err)
	return client
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", "http://localhost:9200"},
		{"localhost:9200", "http://localhost:9200"},
		{"http://es:9200", "http://es:9200"},
		{"https://cloud.example:443", "https://cloud.example:443"},
	}

	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_RejectsInvalidCACert(t *testing.T) {
	t.Parallel()

	_, err := New(Config{URL: "https://es:9200", CACert: []byte("not a pem")}, nil)
	assert.ErrorIs(t, err, ErrInvalidCACert)
}

func TestClient_Ping(t *testing.T) {
	t.Parallel()

	client := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_Info(t *testing.T) {
	t.Parallel()

	client := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"node-1","cluster_name":"yelp","version":{"number":"8.11.0"}}`)
	})

	info, err := client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "yelp", info.ClusterName)
	assert.Equal(t, "8.11.0", info.Version.Number)
}

func TestClient_EnsureIndex(t *testing.T) {
	t.Parallel()

	t.Run("creates missing index", func(t *testing.T) {
		t.Parallel()

		var createdBody map[string]any
		client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				assert.Equal(t, "/yelp-business", r.URL.Path)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&createdBody))
				_, _ = io.WriteString(w, `{"acknowledged":true}`)
			}
		})

		created, err := client.EnsureIndex(context.Background(), "yelp-business", map[string]any{"mappings": map[string]any{}})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Contains(t, createdBody, "mappings")
	})

	t.Run("existing index is left alone", func(t *testing.T) {
		t.Parallel()

		client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodHead {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		})

		created, err := client.EnsureIndex(context.Background(), "yelp-business", nil)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("lost creation race is not an error", func(t *testing.T) {
		t.Parallel()

		client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"type":"resource_already_exists_exception","reason":"index [yelp-tip] already exists"},"status":400}`)
		})

		created, err := client.EnsureIndex(context.Background(), "yelp-tip", nil)
		require.NoError(t, err)
		assert.False(t, created)
	})
}

func TestClient_Bulk(t *testing.T) {
	t.Parallel()

	var lines []string
	client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		_, _ = io.WriteString(w, `{"took":7,"errors":true,"items":[
			{"index":{"_index":"yelp-review","_id":"r1","status":201}},
			{"index":{"_index":"yelp-review","_id":"auto","status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse field [stars]"}}}
		]}`)
	})

	result, err := client.Bulk(context.Background(), []BulkItem{
		{Index: "yelp-review", ID: "r1", HasID: true, Source: json.RawMessage(`{"review_id": "r1", "stars": 5}`)},
		{Index: "yelp-review", Source: json.RawMessage(`{"stars":"five"}`)},
	})
	require.NoError(t, err)

	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_index":"yelp-review","_id":"r1"}}`, lines[0])
	assert.Equal(t, `{"review_id":"r1","stars":5}`, lines[1])
	assert.JSONEq(t, `{"index":{"_index":"yelp-review"}}`, lines[2])

	assert.Equal(t, 1, result.Indexed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Position)
	assert.Equal(t, "mapper_parsing_exception", result.Failed[0].Type)
	assert.Equal(t, 7, result.TookMs)
}

func TestClient_Bulk_CallFailure(t *testing.T) {
	t.Parallel()

	client := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = io.WriteString(w, `{"error":"request too large","status":413}`)
	})

	_, err := client.Bulk(context.Background(), []BulkItem{{Index: "yelp-user", Source: json.RawMessage(`{}`)}})

	respErr, ok := IsResponseError(err)
	require.True(t, ok, "error = %v, want *ResponseError", err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, respErr.StatusCode)
	assert.Equal(t, "request too large", respErr.Reason)
}

func TestSummarizeBulk_MissingItemsCountAsFailed(t *testing.T) {
	t.Parallel()

	parsed := &bulkResponse{Items: []map[string]bulkResponseItemRaw{
		{"index": {ID: "a", Status: 200}},
	}}

	result := summarizeBulk(parsed, 3)
	assert.Equal(t, 1, result.Indexed)
	assert.Len(t, result.Failed, 2)
	assert.Equal(t, 2, result.Failed[1].Position)
}

func TestClient_Search(t *testing.T) {
	t.Parallel()

	var sent map[string]any
	client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/yelp-review/_search"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = io.WriteString(w, `{"took":3,"hits":{"total":{"value":2,"relation":"eq"},"hits":[
			{"_index":"yelp-review","_id":"r1","_score":1.5,"_source":{"review_id":"r1","business_id":"b1"}},
			{"_index":"yelp-review","_id":"r2","_score":null,"_source":{"review_id":"r2","business_id":"b2"}}
		]}}`)
	})

	result, err := client.Search(context.Background(), "yelp-review", query.KeywordQuery("text", "great", 10, 1))
	require.NoError(t, err)

	assert.Contains(t, sent, "query")
	assert.EqualValues(t, 0, sent["from"])
	assert.Equal(t, int64(2), result.Total)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "r1", result.Hits[0].ID)
	assert.InDelta(t, 1.5, result.Hits[0].Score, 0)
	assert.InDelta(t, 0, result.Hits[1].Score, 0)
	assert.JSONEq(t, `{"review_id":"r2","business_id":"b2"}`, string(result.Hits[1].Source))
}

func TestClient_Search_ResponseError(t *testing.T) {
	t.Parallel()

	client := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception","reason":"no such index [yelp-review]"},"status":404}`)
	})

	_, err := client.Search(context.Background(), "yelp-review", query.OneStarQuery(5))

	respErr, ok := IsResponseError(err)
	require.True(t, ok)
	assert.Equal(t, "index_not_found_exception", respErr.Type)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestClient_Search_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := New(Config{URL: url}, nil)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "yelp-review", query.OneStarQuery(5))
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_UnavailableClusterIsNotRetried(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	client := newFakeCluster(t, func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"type":"unavailable_shards_exception","reason":"no shards"},"status":503}`)
	})
	ctx := context.Background()

	_, err := client.Search(ctx, "yelp-review", query.OneStarQuery(5))
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load(), "search")

	requests.Store(0)
	_, err = client.Bulk(ctx, []BulkItem{{Index: "yelp-review", Source: json.RawMessage(`{"text":"ok"}`)}})
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load(), "bulk")
}
