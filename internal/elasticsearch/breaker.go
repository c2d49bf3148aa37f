package elasticsearch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/metrics"
	"github.com/jonesrussell/yelp-search/internal/query"
)

// BreakerConfig configures the circuit breaker around search calls.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// BreakerSearcher fails fast with ErrTransport while the cluster is unhealthy.
type BreakerSearcher struct {
	next    Searcher
	breaker *gobreaker.CircuitBreaker[*SearchResult]
	name    string
}

// NewBreakerSearcher wraps next with a circuit breaker. Responses below 500 count as
// successes so malformed queries cannot open the circuit.
func NewBreakerSearcher(next Searcher, cfg BreakerConfig, log logger.Logger, m *metrics.Metrics) *BreakerSearcher {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "elasticsearch"
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			if respErr, ok := IsResponseError(err); ok {
				return respErr.StatusCode < http.StatusInternalServerError
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			m.SetBreakerState(name, stateToFloat(to))
		},
	}

	m.SetBreakerState(cfg.Name, stateToFloat(gobreaker.StateClosed))

	return &BreakerSearcher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*SearchResult](settings),
		name:    cfg.Name,
	}
}

// Search implements Searcher.
func (b *BreakerSearcher) Search(ctx context.Context, index string, req query.Request) (*SearchResult, error) {
	result, err := b.breaker.Execute(func() (*SearchResult, error) {
		return b.next.Search(ctx, index, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, transportError("circuit "+b.name, err)
	}
	return result, err
}

// State returns the current breaker state.
func (b *BreakerSearcher) State() gobreaker.State {
	return b.breaker.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
