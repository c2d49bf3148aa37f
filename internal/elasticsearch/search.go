package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/query"
)

// Searcher executes a search request against one index.
type Searcher interface {
	Search(ctx context.Context, index string, req query.Request) (*SearchResult, error)
}

// Hit is one matching document.
type Hit struct {
	Index  string
	ID     string
	Score  float64
	Source json.RawMessage
}

// SearchResult holds the hits of one search call.
type SearchResult struct {
	Total  int64
	Hits   []Hit
	TookMs int
}

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Index  string          `json:"_index"`
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search executes req against index. Query-time calls are never retried.
func (c *Client) Search(ctx context.Context, index string, req query.Request) (*SearchResult, error) {
	start := time.Now()

	result, err := c.search(ctx, index, req)

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		c.log.Error("Search failed",
			logger.String("index", index),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
	case len(result.Hits) == 0:
		outcome = metrics.OutcomeEmpty
	}
	c.metrics.ObserveSearch(index, outcome, time.Since(start))

	return result, err
}

func (c *Client) search(ctx context.Context, index string, req query.Request) (*SearchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, transportError("search", err)
	}
	defer closeBody(res.Body, c.log)

	if res.IsError() {
		return nil, newResponseError(res)
	}

	var parsed searchResponse
	if decodeErr := json.NewDecoder(res.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("decode search response: %w", decodeErr)
	}

	result := &SearchResult{
		Total:  parsed.Hits.Total.Value,
		Hits:   make([]Hit, 0, len(parsed.Hits.Hits)),
		TookMs: parsed.Took,
	}
	for _, h := range parsed.Hits.Hits {
		hit := Hit{Index: h.Index, ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}
