package domain

import (
	"fmt"
	"strings"
)

// Request defaults.
const (
	DefaultPage = 1
	DefaultSize = 10

	// MaxResultWindow is the deepest hit (from + size) the cluster will page to.
	MaxResultWindow = 10000
)

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SearchRequest is the body of both search endpoints. Page and Size are optional.
type SearchRequest struct {
	Query *string `json:"query"`
	Page  *int    `json:"page,omitempty"`
	Size  *int    `json:"size,omitempty"`
}

// Search is a validated request with defaults applied.
type Search struct {
	Query string
	Page  int
	Size  int
}

// Normalize applies defaults and validates the request. defaultSize replaces a
// missing size; maxSize caps it.
func (r *SearchRequest) Normalize(defaultSize, maxSize int) (Search, error) {
	if defaultSize < 1 {
		defaultSize = DefaultSize
	}

	if r.Query == nil {
		return Search{}, &ValidationError{Field: "query", Message: "is required"}
	}
	q := strings.TrimSpace(*r.Query)
	if q == "" {
		return Search{}, &ValidationError{Field: "query", Message: "must not be blank"}
	}

	s := Search{Query: q, Page: DefaultPage, Size: defaultSize}
	if r.Page != nil {
		s.Page = *r.Page
	}
	if r.Size != nil {
		s.Size = *r.Size
	}

	if s.Page < 1 {
		return Search{}, &ValidationError{Field: "page", Message: "must be at least 1"}
	}
	if s.Size < 1 {
		return Search{}, &ValidationError{Field: "size", Message: "must be at least 1"}
	}
	if maxSize > 0 && s.Size > maxSize {
		return Search{}, &ValidationError{Field: "size", Message: fmt.Sprintf("must not exceed %d", maxSize)}
	}
	if s.Size > MaxResultWindow {
		return Search{}, &ValidationError{Field: "size", Message: fmt.Sprintf("must not exceed %d", MaxResultWindow)}
	}
	if s.Page > MaxResultWindow/s.Size {
		return Search{}, &ValidationError{
			Field:   "page",
			Message: fmt.Sprintf("page * size must not exceed %d", MaxResultWindow),
		}
	}

	return s, nil
}

// LocationSearchResponse is the body returned by location search.
type LocationSearchResponse struct {
	Count   int        `json:"count"`
	Results []Document `json:"results"`
}
