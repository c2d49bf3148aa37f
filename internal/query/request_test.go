package query_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/yelp-search/internal/query"
)

func marshal(t *testing.T, v any) string {
	t.Helper()

	body, err := json.Marshal(v)
	require.NoError(t, err)
	return string(body)
}

func TestOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		size, page, want int
	}{
		{10, 1, 0},
		{10, 3, 20},
		{25, 2, 25},
		{10, 0, -10},
	}

	for _, tt := range tests {
		if got := query.Offset(tt.size, tt.page); got != tt.want {
			t.Errorf("Offset(%d, %d) = %d, want %d", tt.size, tt.page, got, tt.want)
		}
	}
}

func TestKeywordQuery(t *testing.T) {
	t.Parallel()

	req := query.KeywordQuery("text", "great", 10, 3)

	assert.JSONEq(t, `{
		"query": {"match": {"text": {"query": "great", "operator": "and"}}},
		"from": 20,
		"size": 10
	}`, marshal(t, req))
	assert.Equal(t, query.KindMatch, req.Query.Kind())
}

func TestKeywordQuery_FirstPageSendsZeroOffset(t *testing.T) {
	t.Parallel()

	req := query.KeywordQuery("", "pizza", 5, 1)

	require.NotNil(t, req.From)
	assert.Equal(t, 0, *req.From)
	assert.JSONEq(t, `{
		"query": {"match": {"text": {"query": "pizza", "operator": "and"}}},
		"from": 0,
		"size": 5
	}`, marshal(t, req))
}

func TestTermQuery_HasNoOffset(t *testing.T) {
	t.Parallel()

	req := query.TermQuery("postal_code", "85705", 25, query.Sort{Field: "review_count", Order: query.Desc})

	assert.Nil(t, req.From)
	assert.JSONEq(t, `{
		"query": {"term": {"postal_code": "85705"}},
		"size": 25,
		"sort": [{"review_count": {"order": "desc"}}]
	}`, marshal(t, req))
}

func TestMultiFieldQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order query.Order
		want  string
	}{
		{
			name:  "explicit ascending",
			order: query.Asc,
			want: `{
				"query": {"multi_match": {"query": "AZ", "fields": ["state", "postal_code", "city"]}},
				"from": 10,
				"size": 10,
				"sort": [{"review_count": {"order": "asc"}}]
			}`,
		},
		{
			name:  "default descending",
			order: "",
			want: `{
				"query": {"multi_match": {"query": "AZ", "fields": ["state", "postal_code", "city"]}},
				"from": 10,
				"size": 10,
				"sort": [{"review_count": {"order": "desc"}}]
			}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := query.MultiFieldQuery(query.LocationFields, "AZ", 10, 2, "review_count", tt.order)
			assert.JSONEq(t, tt.want, marshal(t, req))
		})
	}
}

func TestTermsLookup_SizeMatchesValues(t *testing.T) {
	t.Parallel()

	ids := []string{"b1", "b2", "b3"}
	req := query.TermsLookup("business_id", ids, "business_id", "name")

	assert.Equal(t, len(ids), req.Size)
	assert.JSONEq(t, `{
		"query": {"terms": {"business_id": ["b1", "b2", "b3"]}},
		"size": 3,
		"_source": ["business_id", "name"]
	}`, marshal(t, req))
}

func TestTermsLookup_NilValuesRenderEmptyArray(t *testing.T) {
	t.Parallel()

	assert.JSONEq(t, `{"query": {"terms": {"business_id": []}}, "size": 0}`,
		marshal(t, query.TermsLookup("business_id", nil)))
}

func TestTermsLookupAny(t *testing.T) {
	t.Parallel()

	req := query.TermsLookupAny([]string{"business_id", "business_id.keyword"}, []string{"Pns2l4eNsfO8kk83dixA6A", "b2"})

	assert.Equal(t, 2, req.Size)
	assert.JSONEq(t, `{
		"query": {"bool": {"should": [
			{"terms": {"business_id": ["Pns2l4eNsfO8kk83dixA6A", "b2"]}},
			{"terms": {"business_id.keyword": ["Pns2l4eNsfO8kk83dixA6A", "b2"]}}
		]}},
		"size": 2
	}`, marshal(t, req))
}

func TestOneStarQuery(t *testing.T) {
	t.Parallel()

	req := query.OneStarQuery(20)

	assert.Equal(t, query.KindBool, req.Query.Kind())
	assert.JSONEq(t, `{
		"query": {"bool": {"must": [{"term": {"stars": 1.0}}]}},
		"size": 20
	}`, marshal(t, req))
}

func TestZipAndStateQueries(t *testing.T) {
	t.Parallel()

	assert.JSONEq(t, `{
		"query": {"term": {"postal_code": "89109"}},
		"size": 10,
		"sort": [{"review_count": {"order": "desc"}}]
	}`, marshal(t, query.ZipQuery("89109", 10)))

	assert.JSONEq(t, `{
		"query": {"multi_match": {"query": "NV", "fields": ["state"]}},
		"size": 10,
		"sort": [{"review_count": {"order": "desc"}}]
	}`, marshal(t, query.StateQuery("NV", 10)))
}
