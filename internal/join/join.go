// Package join attaches business metadata to review hits with a single lookup against
// the business index.
package join

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonesrussell/yelp-search/internal/domain"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/query"
)

const fieldBusinessID = "business_id"

// lookupFields covers both index layouts: business_id mapped as keyword, and
// business_id as dynamically mapped text with a .keyword sub-field. Against the
// analyzed text field alone, mixed-case ids would never match.
var lookupFields = []string{fieldBusinessID, fieldBusinessID + ".keyword"}

// Joiner denormalizes reviews with business name, city and state.
type Joiner struct {
	searcher      elasticsearch.Searcher
	businessIndex string
	log           logger.Logger
}

// NewJoiner creates a Joiner reading from businessIndex.
func NewJoiner(searcher elasticsearch.Searcher, businessIndex string, log logger.Logger) *Joiner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Joiner{searcher: searcher, businessIndex: businessIndex, log: log}
}

// JoinBusinessInfo returns one result per review, in input order. Reviews whose
// business is not found get null business fields. Exactly one search is issued
// unless no review carries a business id.
func (j *Joiner) JoinBusinessInfo(ctx context.Context, reviews []domain.Review) ([]domain.ReviewResult, error) {
	if len(reviews) == 0 {
		return []domain.ReviewResult{}, nil
	}

	ids := DistinctBusinessIDs(reviews)

	businesses := map[string]domain.BusinessSummary{}
	if len(ids) > 0 {
		var err error
		businesses, err = j.lookup(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	results := make([]domain.ReviewResult, len(reviews))
	for i := range reviews {
		results[i] = domain.ReviewResult{
			Text:  reviews[i].Text,
			Stars: reviews[i].Stars,
			Date:  reviews[i].Date,
		}
		if b, ok := businesses[reviews[i].BusinessID]; ok {
			results[i].BusinessName = b.Name
			results[i].BusinessCity = b.City
			results[i].BusinessState = b.State
		}
	}

	return results, nil
}

// DistinctBusinessIDs returns the non-empty business ids in first-seen order.
func DistinctBusinessIDs(reviews []domain.Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for i := range reviews {
		id := reviews[i].BusinessID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (j *Joiner) lookup(ctx context.Context, ids []string) (map[string]domain.BusinessSummary, error) {
	req := query.TermsLookupAny(lookupFields, ids, domain.BusinessSummaryFields...)

	result, err := j.searcher.Search(ctx, j.businessIndex, req)
	if err != nil {
		return nil, fmt.Errorf("business lookup: %w", err)
	}

	businesses := make(map[string]domain.BusinessSummary, len(result.Hits))
	for _, hit := range result.Hits {
		var b domain.BusinessSummary
		if decodeErr := json.Unmarshal(hit.Source, &b); decodeErr != nil {
			j.log.Warn("Skipping undecodable business document",
				logger.String("id", hit.ID),
				logger.Error(decodeErr),
			)
			continue
		}
		businesses[b.BusinessID] = b
	}

	if missing := len(ids) - len(businesses); missing > 0 {
		j.log.Debug("Businesses not found for reviews", logger.Int("missing", missing))
	}
	return businesses, nil
}
