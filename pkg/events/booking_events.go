package events

import "time"

// Topics.
const (
	TopicBookingEvents  = "booking.events"
	TopicProviderEvents = "provider.events"
)

// Event types on booking.events.
const (
	BookingConfirmed     = "booking.confirmed"
	BookingStatusChanged = "booking.status_changed"
	BookingCancelled     = "booking.cancelled"
)

// Event types on provider.events.
const (
	ProviderStatusUpdated = "provider.status_updated"
)

// BookingConfirmedEvent is published once per confirmed booking.
type BookingConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	TrackingID  string    `json:"tracking_id"`
	UserID      string    `json:"user_id"`
	ServiceType string    `json:"service_type"`
	PickupLat   float64   `json:"pickup_lat"`
	PickupLng   float64   `json:"pickup_lng"`
	DropLat     float64   `json:"drop_lat"`
	DropLng     float64   `json:"drop_lng"`
	DistanceKm  float64   `json:"distance_km"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every forward status move.
type BookingStatusChangedEvent struct {
	BookingID  string    `json:"booking_id"`
	TrackingID string    `json:"tracking_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ChangedBy  string    `json:"changed_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID   string    `json:"booking_id"`
	TrackingID  string    `json:"tracking_id"`
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ProviderStatusUpdatedEvent is emitted by provider apps when a job moves on.
type ProviderStatusUpdatedEvent struct {
	TrackingID string    `json:"tracking_id"`
	Status     string    `json:"status"`
	ProviderID string    `json:"provider_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
