package booking

import (
	"fmt"
	"time"

	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/google/uuid"
)

// PendingBooking is a priced route awaiting confirmation. It lives only in a
// staging slot and is consumed by confirmation.
type PendingBooking struct {
	ID          uuid.UUID    `json:"id"`
	Pickup      Location     `json:"pickup"`
	Drop        Location     `json:"drop"`
	ServiceType ServiceType  `json:"service_type"`
	Pricing     PricingQuote `json:"pricing"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewPendingBooking quotes the route and stamps a fresh pending booking. It has
// no side effects; the caller decides where to stage it.
func NewPendingBooking(pickup, drop *Location, serviceType ServiceType, pricing PricingStrategy, now time.Time) (*PendingBooking, error) {
	if !serviceType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid service type: %s", serviceType))
	}

	quote, err := pricing.Quote(pickup, drop, serviceType)
	if err != nil {
		return nil, err
	}

	return &PendingBooking{
		ID:          uuid.New(),
		Pickup:      *pickup,
		Drop:        *drop,
		ServiceType: serviceType,
		Pricing:     quote,
		CreatedAt:   now.UTC(),
	}, nil
}

// Validate checks a pending booking read back from staging.
func (p PendingBooking) Validate() error {
	if p.ID == uuid.Nil {
		return domain.NewValidationError("pending booking has no id")
	}
	if err := requireLegs(&p.Pickup, &p.Drop); err != nil {
		return err
	}
	if !p.ServiceType.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid service type: %s", p.ServiceType))
	}
	return nil
}
