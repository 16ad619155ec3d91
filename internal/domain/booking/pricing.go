package booking

import (
	"fmt"
	"math"

	"github.com/MoveMate/service-booking/pkg/domain"
)

const earthRadiusKm = 6371.0

// taxPercent is GST applied to the subtotal.
const taxPercent = 18

// PricingStrategy defines the interface for quoting a route.
type PricingStrategy interface {
	// Quote prices the route between pickup and drop for the given service.
	Quote(pickup, drop *Location, serviceType ServiceType) (PricingQuote, error)
}

// PricingQuote is the price breakdown of a route. All money values are whole rupees.
type PricingQuote struct {
	DistanceKm   float64 `json:"distance_km"`
	BaseCharge   int64   `json:"base_charge"`
	DistanceCost int64   `json:"distance_cost"`
	Subtotal     int64   `json:"subtotal"`
	TaxAmount    int64   `json:"tax_amount"`
	Total        int64   `json:"total"`
}

// Rate is the tariff of one service tier.
type Rate struct {
	PerKm      int64
	BaseCharge int64
}

// StandardRates is the published tariff.
var StandardRates = map[ServiceType]Rate{
	ServicePackers: {PerKm: 15, BaseCharge: 500},
	ServiceMovers:  {PerKm: 25, BaseCharge: 1000},
	ServiceBoth:    {PerKm: 35, BaseCharge: 1200},
}

// RateCardPricingStrategy prices routes from a per-tier rate card.
type RateCardPricingStrategy struct {
	rates map[ServiceType]Rate
}

// NewStandardPricingStrategy creates a strategy using StandardRates.
func NewStandardPricingStrategy() *RateCardPricingStrategy {
	return NewRateCardPricingStrategy(StandardRates)
}

// NewRateCardPricingStrategy creates a strategy over a custom rate card.
func NewRateCardPricingStrategy(rates map[ServiceType]Rate) *RateCardPricingStrategy {
	card := make(map[ServiceType]Rate, len(rates))
	for k, v := range rates {
		card[k] = v
	}
	return &RateCardPricingStrategy{rates: card}
}

// Quote computes the price breakdown.
//
// Pricing formula:
//   - distance cost: round(distanceKm * perKm), on the unrounded distance
//   - subtotal: base charge + distance cost
//   - tax: round(subtotal * 18%)
//   - total: subtotal + tax
//
// The displayed distance is kept to one decimal place.
func (s *RateCardPricingStrategy) Quote(pickup, drop *Location, serviceType ServiceType) (PricingQuote, error) {
	if err := requireLegs(pickup, drop); err != nil {
		return PricingQuote{}, err
	}
	rate, ok := s.rates[serviceType]
	if !ok {
		return PricingQuote{}, domain.NewValidationError(fmt.Sprintf("no rate for service type: %s", serviceType))
	}

	distanceKm := DistanceKm(*pickup, *drop)
	distanceCost := roundHalfUp(distanceKm * float64(rate.PerKm))
	subtotal := rate.BaseCharge + distanceCost
	tax := taxOn(subtotal)

	return PricingQuote{
		DistanceKm:   math.Round(distanceKm*10) / 10,
		BaseCharge:   rate.BaseCharge,
		DistanceCost: distanceCost,
		Subtotal:     subtotal,
		TaxAmount:    tax,
		Total:        subtotal + tax,
	}, nil
}

// DistanceKm returns the great-circle distance between a and b (Haversine).
func DistanceKm(a, b Location) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	lat1Rad := degreesToRadians(a.Lat)
	lat2Rad := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Floating error can push h a hair outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// taxOn rounds half up in integer arithmetic so x.5 never becomes x.4999.
func taxOn(subtotal int64) int64 {
	return (subtotal*taxPercent + 50) / 100
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
