package join_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/yelp-search/internal/domain"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/join"
	"github.com/jonesrussell/yelp-search/internal/query"
)

type recordingSearcher struct {
	calls   []query.Request
	indices []string
	docs    map[string]string
	err     error
}

func (s *recordingSearcher) Search(_ context.Context, index string, req query.Request) (*elasticsearch.SearchResult, error) {
	s.calls = append(s.calls, req)
	s.indices = append(s.indices, index)
	if s.err != nil {
		return nil, s.err
	}

	lookup, ok := req.Query.(query.Bool)
	if !ok || len(lookup.Should) == 0 {
		return &elasticsearch.SearchResult{}, nil
	}
	terms, ok := lookup.Should[0].(query.Terms)
	if !ok {
		return &elasticsearch.SearchResult{}, nil
	}
	result := &elasticsearch.SearchResult{}
	for _, id := range terms.Values {
		if doc, found := s.docs[id]; found {
			result.Hits = append(result.Hits, elasticsearch.Hit{ID: id, Source: json.RawMessage(doc)})
		}
	}
	result.Total = int64(len(result.Hits))
	return result, nil
}

func TestJoiner_ExampleJoin(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{docs: map[string]string{
		"b1": `{"business_id":"b1","name":"Cafe X","city":"Tucson","state":"AZ"}`,
	}}
	joiner := join.NewJoiner(searcher, "yelp-business", nil)

	results, err := joiner.JoinBusinessInfo(context.Background(), []domain.Review{
		{ReviewID: "r1", BusinessID: "b1", Text: "great coffee", Stars: domain.Number("5"), Date: "2018-07-07 22:09:11"},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "great coffee", results[0].Text)
	require.NotNil(t, results[0].BusinessName)
	assert.Equal(t, "Cafe X", *results[0].BusinessName)
	assert.Equal(t, "Tucson", *results[0].BusinessCity)
	assert.Equal(t, "AZ", *results[0].BusinessState)
	assert.Equal(t, []string{"yelp-business"}, searcher.indices)
}

func TestJoiner_OrderLengthAndNulls(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{docs: map[string]string{
		"b1": `{"business_id":"b1","name":"Cafe X","city":"Tucson","state":"AZ"}`,
		"b3": `{"business_id":"b3","name":"Deli Y"}`,
	}}
	joiner := join.NewJoiner(searcher, "yelp-business", nil)

	reviews := []domain.Review{
		{ReviewID: "r1", BusinessID: "b3", Text: "one"},
		{ReviewID: "r2", BusinessID: "b1", Text: "two"},
		{ReviewID: "r3", BusinessID: "b2", Text: "three"},
		{ReviewID: "r4", BusinessID: "b3", Text: "four"},
		{ReviewID: "r5", Text: "five"},
	}

	results, err := joiner.JoinBusinessInfo(context.Background(), reviews)
	require.NoError(t, err)

	require.Len(t, results, len(reviews))
	for i := range reviews {
		assert.Equal(t, reviews[i].Text, results[i].Text, "result %d out of order", i)
	}

	assert.Equal(t, "Deli Y", *results[0].BusinessName)
	assert.Nil(t, results[0].BusinessCity, "field absent from the business document")
	assert.Equal(t, "Cafe X", *results[1].BusinessName)
	assert.Nil(t, results[2].BusinessName, "unmatched business")
	assert.Nil(t, results[2].BusinessState)
	assert.Nil(t, results[4].BusinessName, "review without business id")

	encoded, err := json.Marshal(results[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"three","stars":null,"date":"","business_name":null,"business_city":null,"business_state":null}`, string(encoded))
}

func TestJoiner_SingleLookupSizedToDistinctIDs(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{docs: map[string]string{}}
	joiner := join.NewJoiner(searcher, "yelp-business", nil)

	_, err := joiner.JoinBusinessInfo(context.Background(), []domain.Review{
		{BusinessID: "b2"}, {BusinessID: "b1"}, {BusinessID: "b2"}, {BusinessID: ""}, {BusinessID: "b3"}, {BusinessID: "b1"},
	})
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	req := searcher.calls[0]
	assert.Equal(t, 3, req.Size)
	lookup, ok := req.Query.(query.Bool)
	require.True(t, ok)
	require.Len(t, lookup.Should, 2)
	for i, field := range []string{"business_id", "business_id.keyword"} {
		terms, isTerms := lookup.Should[i].(query.Terms)
		require.True(t, isTerms)
		assert.Equal(t, field, terms.Field)
		assert.Equal(t, []string{"b2", "b1", "b3"}, terms.Values)
	}

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {"bool": {"should": [
			{"terms": {"business_id": ["b2", "b1", "b3"]}},
			{"terms": {"business_id.keyword": ["b2", "b1", "b3"]}}
		]}},
		"size": 3,
		"_source": ["business_id", "name", "city", "state"]
	}`, string(body))
}

func TestJoiner_EmptyInputSkipsBackend(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{}
	joiner := join.NewJoiner(searcher, "yelp-business", nil)

	results, err := joiner.JoinBusinessInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Empty(t, searcher.calls)

	results, err = joiner.JoinBusinessInfo(context.Background(), []domain.Review{{Text: "orphan"}})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Empty(t, searcher.calls, "no business ids means no lookup")
}

func TestJoiner_LookupErrorIsReturned(t *testing.T) {
	t.Parallel()

	searcher := &recordingSearcher{err: elasticsearch.ErrTransport}
	joiner := join.NewJoiner(searcher, "yelp-business", nil)

	_, err := joiner.JoinBusinessInfo(context.Background(), []domain.Review{{BusinessID: "b1"}})
	assert.True(t, errors.Is(err, elasticsearch.ErrTransport))
}
