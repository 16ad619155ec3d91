package handler

import (
	"strconv"

	"github.com/MoveMate/service-booking/internal/application"
	"github.com/MoveMate/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
)

// LocationHandler exposes forward and reverse geocoding.
type LocationHandler struct {
	service *application.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(service *application.LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// RegisterRoutes registers geocoding routes.
func (h *LocationHandler) RegisterRoutes(r *gin.RouterGroup) {
	geo := r.Group("/api/v1/geocode")
	{
		geo.GET("/search", h.Search)
		geo.GET("/reverse", h.Reverse)
	}
}

// Search handles GET /api/v1/geocode/search?q=.
func (h *LocationHandler) Search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reverse handles GET /api/v1/geocode/reverse?lat=&lng=.
func (h *LocationHandler) Reverse(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.BadRequest(c, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		response.BadRequest(c, "lng must be a number")
		return
	}

	result, err := h.service.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
