package booking

import (
	"context"

	"github.com/google/uuid"
)

// StatusTotals aggregates bookings sharing a status.
type StatusTotals struct {
	Count   int64 `json:"count"`
	Revenue int64 `json:"revenue"`
}

// BookingRepository defines the persistence contract for confirmed bookings.
type BookingRepository interface {
	// FindByTrackingID retrieves a booking by exact, case-sensitive tracking id.
	FindByTrackingID(ctx context.Context, trackingID string) (*Booking, error)

	// FindByPendingID retrieves the booking created from a pending booking.
	FindByPendingID(ctx context.Context, pendingID uuid.UUID) (*Booking, error)

	// FindByUserID retrieves bookings belonging to a user with pagination, newest first.
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// ListByStatus retrieves bookings currently in status with pagination (admin).
	ListByStatus(ctx context.Context, status BookingStatus, page, limit int) ([]*Booking, int64, error)

	// ListByPickupRegion retrieves bookings whose pickup geohash starts with region (admin).
	ListByPickupRegion(ctx context.Context, region string, page, limit int) ([]*Booking, int64, error)

	// TotalsByStatus returns counts and revenue grouped by status (admin).
	TotalsByStatus(ctx context.Context) (map[BookingStatus]StatusTotals, error)

	// Save appends a new booking. It fails with ErrDuplicateConfirmation when the
	// pending booking was already confirmed and ErrTrackingIDTaken on an id clash.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking on version.
	Update(ctx context.Context, booking *Booking) error
}

// PendingStore is the per-user staging slot for a booking awaiting confirmation.
type PendingStore interface {
	// Put stages pending for userID, replacing any previous one.
	Put(ctx context.Context, userID string, pending *PendingBooking) error

	// Get returns the staged booking or ErrNoPendingBooking.
	Get(ctx context.Context, userID string) (*PendingBooking, error)

	// Clear removes the staged booking only if it is still pendingID.
	Clear(ctx context.Context, userID string, pendingID uuid.UUID) (bool, error)

	// Discard empties the slot unconditionally.
	Discard(ctx context.Context, userID string) error
}
