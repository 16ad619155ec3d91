package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/MoveMate/service-booking/internal/application"
	"github.com/MoveMate/service-booking/pkg/auth"
	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/MoveMate/service-booking/pkg/middleware"
	"github.com/MoveMate/service-booking/pkg/response"
)

// AdminBookingHandler serves the operations dashboard: every booking, filtered
// by status on request, and revenue totals.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/:trackingId", h.GetBooking)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings?status=|pickup_region=&page=&limit=.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)
	status, region := c.Query("status"), c.Query("pickup_region")
	if status != "" && region != "" {
		response.BadRequest(c, "filter by either status or pickup_region, not both")
		return
	}

	var (
		result *domain.PaginatedResult[application.BookingDTO]
		err    error
	)
	switch {
	case status != "":
		result, err = h.service.ListBookingsByStatus(c.Request.Context(), status, page, limit)
	case region != "":
		result, err = h.service.ListBookingsByPickupRegion(c.Request.Context(), region, page, limit)
	default:
		result, err = h.service.ListAllBookings(c.Request.Context(), page, limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/admin/bookings/:trackingId.
func (h *AdminBookingHandler) GetBooking(c *gin.Context) {
	result, err := h.service.FindByTrackingID(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
