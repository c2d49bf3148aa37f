package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/yelp-search/internal/domain"
	"github.com/jonesrussell/yelp-search/internal/elasticsearch"
)

// Kind classifies a service failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation means the request was malformed.
	KindValidation
	// KindNotFound means the search matched nothing.
	KindNotFound
	// KindBackend means the cluster answered with an error.
	KindBackend
	// KindTransport means no answer came back: connection failure, timeout or an open
	// circuit breaker.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBackend:
		return "backend"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Code returns the machine-readable error code sent to HTTP clients.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindBackend:
		return "BACKEND_ERROR"
	case KindTransport:
		return "TRANSPORT_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// ErrNoResults is the cause of every KindNotFound error.
var ErrNoResults = errors.New("no results found")

// Error is returned by every SearchService operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown when err is not a service error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err means the search matched nothing.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func notFound(op string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Err: ErrNoResults}
}

// classify wraps a lower-level error with its kind. Error statuses from the cluster
// and undecodable responses are both backend failures.
func classify(op string, err error) *Error {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return &Error{Kind: KindValidation, Op: op, Err: err}
	case errors.Is(err, elasticsearch.ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &Error{Kind: KindTransport, Op: op, Err: err}
	default:
		return &Error{Kind: KindBackend, Op: op, Err: err}
	}
}
