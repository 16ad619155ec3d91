package booking

import "fmt"

// BookingStatus represents the current state of a confirmed booking.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusPickedUp  BookingStatus = "picked_up"
	StatusInTransit BookingStatus = "in_transit"
	StatusDelivered BookingStatus = "delivered"
	StatusCancelled BookingStatus = "cancelled"
)

// StatusSteps is the tracked progression shown on the timeline.
var StatusSteps = []BookingStatus{StatusConfirmed, StatusPickedUp, StatusInTransit, StatusDelivered}

// validTransitions defines the state machine for booking status transitions.
// Every move is one step forward; cancellation is only possible before the goods travel.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusConfirmed: {StatusPickedUp, StatusCancelled},
	StatusPickedUp:  {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

var statusLabels = map[BookingStatus]string{
	StatusConfirmed: "Confirmed",
	StatusPickedUp:  "Picked Up",
	StatusInTransit: "In Transit",
	StatusDelivered: "Delivered",
	StatusCancelled: "Cancelled",
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s BookingStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// Label returns the timeline label.
func (s BookingStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownStatus, s)
	}
	return status, nil
}
