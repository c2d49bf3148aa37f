package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/yelp-search/internal/api"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/query"
	"github.com/jonesrussell/yelp-search/internal/schema"
	"github.com/jonesrussell/yelp-search/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSearcher returns the documents configured per index.
type stubSearcher struct {
	docs map[string][]string
	err  error
}

func (s *stubSearcher) Search(_ context.Context, index string, _ query.Request) (*elasticsearch.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := &elasticsearch.SearchResult{}
	for i, d := range s.docs[index] {
		result.Hits = append(result.Hits, elasticsearch.Hit{Index: index, ID: fmt.Sprint(i), Source: json.RawMessage(d)})
	}
	result.Total = int64(len(result.Hits))
	return result, nil
}

func newRouter(searcher elasticsearch.Searcher) *gin.Engine {
	svc := service.NewSearchService(searcher, schema.NewRegistry(), service.Config{DefaultPageSize: 10, MaxPageSize: 100}, nil)
	router := gin.New()
	api.SetupRoutes(router, api.NewHandler(svc, nil))
	return router
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSearchReviews_JoinedResult(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{docs: map[string][]string{
		"yelp-review":   {`{"review_id":"r1","business_id":"b1","text":"great coffee","stars":5.0,"date":"2018-07-07 22:09:11"}`},
		"yelp-business": {`{"business_id":"b1","name":"Cafe X","city":"Tucson","state":"AZ"}`},
	}})

	w := post(router, api.PathSearchReviews, `{"query":"great"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"text":"great coffee","stars":5,"date":"2018-07-07 22:09:11",
		"business_name":"Cafe X","business_city":"Tucson","business_state":"AZ"
	}]`, w.Body.String())
}

func TestSearchReviews_UnknownBusinessIsNull(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{docs: map[string][]string{
		"yelp-review": {`{"business_id":"gone","text":"meh","stars":2,"date":"2019-01-01"}`},
	}})

	w := post(router, api.PathSearchReviews, `{"query":"meh","page":1,"size":5}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"text":"meh","stars":2,"date":"2019-01-01","business_name":null,"business_city":null,"business_state":null}]`,
		w.Body.String())
}

func TestSearchEndpoints_NoResults(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{})

	for _, path := range []string{api.PathSearchReviews, api.PathSearchLocation} {
		w := post(router, path, `{"query":"85705"}`)

		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"message":"No results found."}`, w.Body.String(), path)
	}
}

func TestSearchLocation_OK(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{docs: map[string][]string{
		"yelp-business": {
			`{"business_id":"b1","name":"Cafe X","postal_code":"85705","review_count":120}`,
			`{"business_id":"b2","name":"Deli Y","postal_code":"85705","review_count":40}`,
		},
	}})

	w := post(router, api.PathSearchLocation, `{"query":"85705"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2,"results":[
		{"name":"Cafe X","postal_code":"85705","review_count":120},
		{"name":"Deli Y","postal_code":"85705","review_count":40}
	]}`, w.Body.String())
}

func TestSearchEndpoints_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		searcher *stubSearcher
		path     string
		body     string
		wantCode string
	}{
		{name: "missing query", searcher: &stubSearcher{}, path: api.PathSearchReviews, body: `{}`, wantCode: "VALIDATION_ERROR"},
		{name: "not json", searcher: &stubSearcher{}, path: api.PathSearchLocation, body: `query=tucson`, wantCode: "VALIDATION_ERROR"},
		{name: "wrong type", searcher: &stubSearcher{}, path: api.PathSearchReviews, body: `{"query":"a","page":"two"}`, wantCode: "VALIDATION_ERROR"},
		{name: "page zero", searcher: &stubSearcher{}, path: api.PathSearchReviews, body: `{"query":"a","page":0}`, wantCode: "VALIDATION_ERROR"},
		{
			name:     "cluster unreachable",
			searcher: &stubSearcher{err: fmt.Errorf("%w: dial tcp 127.0.0.1:9200: connection refused", elasticsearch.ErrTransport)},
			path:     api.PathSearchLocation,
			body:     `{"query":"AZ"}`,
			wantCode: "TRANSPORT_ERROR",
		},
		{
			name:     "cluster error",
			searcher: &stubSearcher{err: &elasticsearch.ResponseError{StatusCode: http.StatusBadRequest, Type: "index_not_found_exception"}},
			path:     api.PathSearchReviews,
			body:     `{"query":"a"}`,
			wantCode: "BACKEND_ERROR",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := post(newRouter(tt.searcher), tt.path, tt.body)

			require.Equal(t, http.StatusInternalServerError, w.Code)
			var body api.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}
