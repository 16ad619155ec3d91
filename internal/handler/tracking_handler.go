package handler

import (
	"io"

	"github.com/MoveMate/service-booking/internal/application"
	"github.com/MoveMate/service-booking/pkg/response"
	"github.com/gin-gonic/gin"
)

// TrackingHandler serves public tracking lookups and live position streams.
type TrackingHandler struct {
	service *application.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(service *application.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// RegisterRoutes registers tracking routes. They need no authentication.
func (h *TrackingHandler) RegisterRoutes(r *gin.RouterGroup) {
	track := r.Group("/api/v1/track")
	{
		track.GET("/:trackingId", h.Track)
		track.GET("/:trackingId/live", h.Live)
	}
}

// Track handles GET /api/v1/track/:trackingId.
func (h *TrackingHandler) Track(c *gin.Context) {
	view, err := h.service.Track(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// Live handles GET /api/v1/track/:trackingId/live as a server-sent event
// stream of "position" events, closed with an "end" event once the booking
// leaves transit.
func (h *TrackingHandler) Live(c *gin.Context) {
	session, err := h.service.Open(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer session.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("position", session.Current())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		pos, ok := <-session.Updates()
		if !ok {
			c.SSEvent("end", gin.H{"tracking_id": c.Param("trackingId")})
			return false
		}
		c.SSEvent("position", pos)
		return true
	})
}
