package booking

import (
	"strings"
	"time"

	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/google/uuid"
)

// Booking is the aggregate root for a confirmed booking.
type Booking struct {
	id          uuid.UUID
	pendingID   uuid.UUID
	trackingID  string
	userID      string
	pickup      Location
	drop        Location
	serviceType ServiceType
	pricing     PricingQuote
	status      BookingStatus

	createdAt   time.Time
	confirmedAt time.Time
	pickedUpAt  *time.Time
	inTransitAt *time.Time
	deliveredAt *time.Time
	cancelledAt *time.Time
	cancelNote  string

	version   int64
	updatedAt time.Time
}

// Confirm turns a pending booking into a confirmed one owned by userID.
func Confirm(pending PendingBooking, userID, trackingID string, now time.Time) (*Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewUnauthorizedError("an authenticated user is required to confirm a booking")
	}
	if strings.TrimSpace(trackingID) == "" {
		return nil, domain.NewValidationError("tracking ID is required")
	}
	if err := pending.Validate(); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:          uuid.New(),
		pendingID:   pending.ID,
		trackingID:  trackingID,
		userID:      userID,
		pickup:      pending.Pickup,
		drop:        pending.Drop,
		serviceType: pending.ServiceType,
		pricing:     pending.Pricing,
		status:      StatusConfirmed,
		createdAt:   pending.CreatedAt,
		confirmedAt: now,
		version:     1,
		updatedAt:   now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	pendingID uuid.UUID,
	trackingID string,
	userID string,
	pickup Location,
	drop Location,
	serviceType ServiceType,
	pricing PricingQuote,
	status BookingStatus,
	createdAt time.Time,
	confirmedAt time.Time,
	pickedUpAt *time.Time,
	inTransitAt *time.Time,
	deliveredAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:          id,
		pendingID:   pendingID,
		trackingID:  trackingID,
		userID:      userID,
		pickup:      pickup,
		drop:        drop,
		serviceType: serviceType,
		pricing:     pricing,
		status:      status,
		createdAt:   createdAt,
		confirmedAt: confirmedAt,
		pickedUpAt:  pickedUpAt,
		inTransitAt: inTransitAt,
		deliveredAt: deliveredAt,
		cancelledAt: cancelledAt,
		cancelNote:  cancelNote,
		version:     version,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID            { return b.id }
func (b *Booking) PendingID() uuid.UUID     { return b.pendingID }
func (b *Booking) TrackingID() string       { return b.trackingID }
func (b *Booking) UserID() string           { return b.userID }
func (b *Booking) Pickup() Location         { return b.pickup }
func (b *Booking) Drop() Location           { return b.drop }
func (b *Booking) ServiceType() ServiceType { return b.serviceType }
func (b *Booking) Pricing() PricingQuote    { return b.pricing }
func (b *Booking) Status() BookingStatus    { return b.status }
func (b *Booking) CreatedAt() time.Time     { return b.createdAt }
func (b *Booking) ConfirmedAt() time.Time   { return b.confirmedAt }
func (b *Booking) PickedUpAt() *time.Time   { return b.pickedUpAt }
func (b *Booking) InTransitAt() *time.Time  { return b.inTransitAt }
func (b *Booking) DeliveredAt() *time.Time  { return b.deliveredAt }
func (b *Booking) CancelledAt() *time.Time  { return b.cancelledAt }
func (b *Booking) CancelNote() string       { return b.cancelNote }
func (b *Booking) Version() int64           { return b.version }
func (b *Booking) UpdatedAt() time.Time     { return b.updatedAt }

// IsOwnedBy reports whether userID placed the booking.
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.userID == userID
}

// --- Behavior ---

// AdvanceTo moves the booking one step forward along StatusSteps.
func (b *Booking) AdvanceTo(target BookingStatus, now time.Time) error {
	if !target.IsValid() {
		return UnknownStatus(target)
	}
	if target == StatusCancelled || !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}

	now = now.UTC()
	switch target {
	case StatusPickedUp:
		b.pickedUpAt = &now
	case StatusInTransit:
		b.inTransitAt = &now
	case StatusDelivered:
		b.deliveredAt = &now
	}
	b.status = target
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled if it has not left the pickup point.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now = now.UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
