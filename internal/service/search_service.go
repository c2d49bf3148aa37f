// Package service implements the read operations behind the HTTP endpoints and the
// ad-hoc query commands.
package service

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/yelp-search/internal/cache"
	"github.com/jonesrussell/yelp-search/internal/domain"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
	"github.com/jonesrussell/yelp-search/internal/join"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/query"
	"github.com/jonesrussell/yelp-search/internal/schema"
)

const tracerName = "github.com/jonesrussell/yelp-search/internal/service"

// Operation names used in errors, spans and cache keys.
const (
	OpSearchReviews  = "search_reviews"
	OpSearchLocation = "search_location"
	OpKeywordReviews = "keyword_reviews"
	OpOneStarReviews = "one_star_reviews"
	OpBusinessesZip  = "businesses_by_zip"
	OpBusinessesArea = "businesses_by_state"
)

// Config holds paging limits.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// SearchService orchestrates search operations. It holds no per-request state and is
// safe for concurrent use.
type SearchService struct {
	searcher      elasticsearch.Searcher
	joiner        *join.Joiner
	reviewIndex   string
	businessIndex string
	config        Config
	logger        logger.Logger
	cache         cache.Cache
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

// NewSearchService creates a search service over the indices named by registry.
func NewSearchService(
	searcher elasticsearch.Searcher,
	registry *schema.Registry,
	cfg Config,
	log logger.Logger,
) *SearchService {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = domain.DefaultSize
	}

	businessIndex := registry.Index(schema.Business)
	return &SearchService{
		searcher:      searcher,
		joiner:        join.NewJoiner(searcher, businessIndex, log),
		reviewIndex:   registry.Index(schema.Review),
		businessIndex: businessIndex,
		config:        cfg,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
	}
}

// WithCache enables the result cache for the HTTP search operations and returns s.
func (s *SearchService) WithCache(c cache.Cache, m *metrics.Metrics) *SearchService {
	s.cache = c
	s.metrics = m
	return s
}

// SearchReviews runs a keyword search over review text and joins business metadata.
// A search without hits fails with KindNotFound.
func (s *SearchService) SearchReviews(ctx context.Context, req domain.SearchRequest) ([]domain.ReviewResult, error) {
	ctx, span := s.startSpan(ctx, OpSearchReviews)
	defer span.End()

	search, err := req.Normalize(s.config.DefaultPageSize, s.config.MaxPageSize)
	if err != nil {
		return nil, s.fail(span, classify(OpSearchReviews, err))
	}
	span.SetAttributes(searchAttributes(search)...)

	key := cache.Key(OpSearchReviews, search.Query, search.Page, search.Size)
	var cached []domain.ReviewResult
	if s.cacheGet(ctx, OpSearchReviews, key, &cached) {
		return cached, nil
	}

	res, err := s.searcher.Search(ctx, s.reviewIndex,
		query.KeywordQuery(query.DefaultKeywordField, search.Query, search.Size, search.Page))
	if err != nil {
		return nil, s.fail(span, classify(OpSearchReviews, err))
	}
	if len(res.Hits) == 0 {
		s.logger.Info("No reviews matched", logger.String("query", search.Query), logger.Int("page", search.Page))
		return nil, notFound(OpSearchReviews)
	}

	reviews := decodeHits[domain.Review](res.Hits, s.logger)
	results, err := s.joiner.JoinBusinessInfo(ctx, reviews)
	if err != nil {
		return nil, s.fail(span, classify(OpSearchReviews, err))
	}

	s.logger.Info("Review search completed",
		logger.String("query", search.Query),
		logger.Int("page", search.Page),
		logger.Int("results", len(results)),
		logger.Int64("total_hits", res.Total),
	)

	s.cacheSet(ctx, OpSearchReviews, key, results)
	return results, nil
}

// SearchLocation matches the query against state, postal code and city, most reviewed
// first. business_id is removed from every result.
func (s *SearchService) SearchLocation(ctx context.Context, req domain.SearchRequest) (*domain.LocationSearchResponse, error) {
	ctx, span := s.startSpan(ctx, OpSearchLocation)
	defer span.End()

	search, err := req.Normalize(s.config.DefaultPageSize, s.config.MaxPageSize)
	if err != nil {
		return nil, s.fail(span, classify(OpSearchLocation, err))
	}
	span.SetAttributes(searchAttributes(search)...)

	key := cache.Key(OpSearchLocation, search.Query, search.Page, search.Size)
	var cached domain.LocationSearchResponse
	if s.cacheGet(ctx, OpSearchLocation, key, &cached) {
		return &cached, nil
	}

	res, err := s.searcher.Search(ctx, s.businessIndex, query.MultiFieldQuery(
		query.LocationFields, search.Query, search.Size, search.Page, query.FieldReviewCount, query.Desc,
	))
	if err != nil {
		return nil, s.fail(span, classify(OpSearchLocation, err))
	}
	if len(res.Hits) == 0 {
		s.logger.Info("No businesses matched location", logger.String("query", search.Query))
		return nil, notFound(OpSearchLocation)
	}

	docs := decodeHits[domain.Document](res.Hits, s.logger)
	for _, doc := range docs {
		delete(doc, schema.FieldBusinessID)
	}

	resp := &domain.LocationSearchResponse{Count: len(docs), Results: docs}
	s.logger.Info("Location search completed",
		logger.String("query", search.Query),
		logger.Int("page", search.Page),
		logger.Int("results", resp.Count),
	)

	s.cacheSet(ctx, OpSearchLocation, key, resp)
	return resp, nil
}

// ReviewsByKeyword returns the first size reviews containing every word of keyword.
func (s *SearchService) ReviewsByKeyword(ctx context.Context, keyword string, size int) ([]domain.Review, error) {
	return searchDocs[domain.Review](ctx, s, OpKeywordReviews, s.reviewIndex,
		query.KeywordQuery(query.DefaultKeywordField, keyword, size, 1))
}

// OneStarReviews returns up to size reviews rated one star.
func (s *SearchService) OneStarReviews(ctx context.Context, size int) ([]domain.Review, error) {
	return searchDocs[domain.Review](ctx, s, OpOneStarReviews, s.reviewIndex, query.OneStarQuery(size))
}

// BusinessesByZip returns businesses in a postal code, most reviewed first.
func (s *SearchService) BusinessesByZip(ctx context.Context, zip string, size int) ([]domain.Business, error) {
	return searchDocs[domain.Business](ctx, s, OpBusinessesZip, s.businessIndex, query.ZipQuery(zip, size))
}

// BusinessesByState returns businesses in a state, most reviewed first.
func (s *SearchService) BusinessesByState(ctx context.Context, state string, size int) ([]domain.Business, error) {
	return searchDocs[domain.Business](ctx, s, OpBusinessesArea, s.businessIndex, query.StateQuery(state, size))
}

// searchDocs runs req and decodes every hit. An empty result is not an error.
func searchDocs[T any](ctx context.Context, s *SearchService, op, index string, req query.Request) ([]T, error) {
	ctx, span := s.startSpan(ctx, op)
	defer span.End()

	res, err := s.searcher.Search(ctx, index, req)
	if err != nil {
		return nil, s.fail(span, classify(op, err))
	}
	return decodeHits[T](res.Hits, s.logger), nil
}

// decodeHits returns one value per hit, in hit order. A document that does not
// decode into T keeps its slot as the zero value.
func decodeHits[T any](hits []elasticsearch.Hit, log logger.Logger) []T {
	out := make([]T, len(hits))
	for i, hit := range hits {
		if err := json.Unmarshal(hit.Source, &out[i]); err != nil {
			log.Warn("Undecodable document",
				logger.String("index", hit.Index),
				logger.String("id", hit.ID),
				logger.Error(err),
			)
		}
	}
	return out
}

func (s *SearchService) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "service."+op)
}

func (s *SearchService) fail(span trace.Span, err *Error) *Error {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("yelp.error_kind", err.Kind.String()))
	if err.Kind == KindValidation {
		s.logger.Warn("Invalid search request", logger.String("op", err.Op), logger.Error(err.Err))
	} else {
		s.logger.Error("Search operation failed", logger.String("op", err.Op), logger.Error(err.Err))
	}
	return err
}

func searchAttributes(search domain.Search) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("yelp.query", search.Query),
		attribute.Int("yelp.page", search.Page),
		attribute.Int("yelp.size", search.Size),
	}
}

// cacheGet reports a hit. Cache failures are logged and treated as misses.
func (s *SearchService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}

	found, err := s.cache.Get(ctx, key, dst)
	switch {
	case err != nil:
		s.metrics.ObserveCache(op, metrics.CacheError)
		s.logger.Warn("Cache lookup failed", logger.String("op", op), logger.Error(err))
		return false
	case found:
		s.metrics.ObserveCache(op, metrics.CacheHit)
		return true
	default:
		s.metrics.ObserveCache(op, metrics.CacheMiss)
		return false
	}
}

func (s *SearchService) cacheSet(ctx context.Context, op, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.Warn("Cache store failed", logger.String("op", op), logger.Error(err))
	}
}
