// Package api exposes the search operations over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/yelp-search/internal/domain"
	"github.com/jonesrussell/yelp-search/internal/logger"
	"github.com/jonesrussell/yelp-search/internal/service"
)

// NoResultsMessage is the body message of every 404.
const NoResultsMessage = "No results found."

// Searcher is the part of the search service the handlers use.
type Searcher interface {
	SearchReviews(ctx context.Context, req domain.SearchRequest) ([]domain.ReviewResult, error)
	SearchLocation(ctx context.Context, req domain.SearchRequest) (*domain.LocationSearchResponse, error)
}

// Handler holds HTTP request handlers
type Handler struct {
	searchService Searcher
	logger        logger.Logger
}

// NewHandler creates a new handler instance
func NewHandler(searchService Searcher, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		searchService: searchService,
		logger:        log,
	}
}

// ErrorResponse is the body of a 500.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse is the body of a 404.
type MessageResponse struct {
	Message string `json:"message"`
}

// SearchReviews handles POST /search-reviews.
func (h *Handler) SearchReviews(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	results, err := h.searchService.SearchReviews(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// SearchLocation handles POST /search-location.
func (h *Handler) SearchLocation(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	resp, err := h.searchService.SearchLocation(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// bind decodes the JSON body. A body that is not JSON is a validation failure.
func (h *Handler) bind(c *gin.Context) (domain.SearchRequest, bool) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.FromContext(c.Request.Context()).Warn("Invalid search request body",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  service.KindValidation.Code(),
		})
		return domain.SearchRequest{}, false
	}
	return req, true
}

// respondError maps service error kinds to responses: not found is 404, everything
// else is 500 with the kind's code.
func (h *Handler) respondError(c *gin.Context, err error) {
	if service.IsNotFound(err) {
		c.JSON(http.StatusNotFound, MessageResponse{Message: NoResultsMessage})
		return
	}

	kind := service.KindOf(err)
	if kind == service.KindUnknown {
		h.logger.Error("Unclassified search failure", logger.String("path", c.FullPath()), logger.Error(err))
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: err.Error(),
		Code:  kind.Code(),
	})
}
