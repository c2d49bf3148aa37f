package api

import (
	"github.com/gin-gonic/gin"
)

// Route paths.
const (
	PathSearchReviews  = "/search-reviews"
	PathSearchLocation = "/search-location"
)

// SetupRoutes registers the search endpoints.
func SetupRoutes(router gin.IRoutes, handler *Handler) {
	router.POST(PathSearchReviews, handler.SearchReviews)
	router.POST(PathSearchLocation, handler.SearchLocation)
}
