package booking

import (
	"errors"

	"github.com/MoveMate/service-booking/pkg/domain"
)

// Sentinels for the booking domain. Callers match them with errors.Is; the
// constructors below attach them to typed AppErrors for transport mapping.
var (
	ErrInvalidLocation            = errors.New("invalid location")
	ErrNotFound                   = errors.New("booking not found")
	ErrDuplicateConfirmation      = errors.New("pending booking already confirmed")
	ErrNoPendingBooking           = errors.New("no pending booking to confirm")
	ErrUnknownStatus              = errors.New("unknown booking status")
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
	ErrTrackingIDTaken            = errors.New("tracking id already in use")
	ErrVersionConflict            = errors.New("booking was modified concurrently")
)

func invalidLocation(msg string) error {
	return domain.NewValidationError(msg).Wrap(ErrInvalidLocation)
}

// NotFound reports a lookup miss for the given tracking id.
func NotFound(trackingID string) error {
	return domain.NewNotFoundError("Booking", trackingID).Wrap(ErrNotFound)
}

// DuplicateConfirmation reports a second confirm of the same pending booking.
func DuplicateConfirmation() error {
	return domain.NewConflictError("pending booking has already been confirmed").Wrap(ErrDuplicateConfirmation)
}

// NoPendingBooking reports an empty staging slot.
func NoPendingBooking() error {
	return domain.NewNotFoundError("PendingBooking", "current user").Wrap(ErrNoPendingBooking)
}

// UnknownStatus reports a status outside the tracked sequence.
func UnknownStatus(status BookingStatus) error {
	return domain.NewValidationError("unknown booking status: " + string(status)).Wrap(ErrUnknownStatus)
}

// VersionConflict reports a failed optimistic update.
func VersionConflict() error {
	return domain.NewConflictError("booking was modified by another request").Wrap(ErrVersionConflict)
}
