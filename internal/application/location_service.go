package application

import (
	"context"
	"strings"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/internal/geocoding"
	"github.com/MoveMate/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// unknownLocation labels a reverse lookup the geocoder answered without a name.
const unknownLocation = "Unknown location"

// Geocoder resolves addresses to coordinates and back. *geocoding.Client satisfies it.
type Geocoder interface {
	Search(ctx context.Context, query string) (*geocoding.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// SearchResultDTO is a forward geocoding answer. Found is false when the
// geocoder had no match or could not be reached; the client then lets the
// user pick a point manually.
type SearchResultDTO struct {
	Found    bool                    `json:"found"`
	Location *bookingDomain.Location `json:"location,omitempty"`
}

// ReverseResultDTO is a reverse geocoding answer. Resolved is false when the
// address is the coordinate fallback.
type ReverseResultDTO struct {
	bookingDomain.Location
	Resolved bool `json:"resolved"`
}

// LocationService wraps the geocoder so its failures never reach the caller.
type LocationService struct {
	geocoder Geocoder
	logger   *zap.Logger
}

// NewLocationService creates a new LocationService.
func NewLocationService(geocoder Geocoder, logger *zap.Logger) *LocationService {
	return &LocationService{geocoder: geocoder, logger: logger}
}

// Search resolves free text to a location.
func (s *LocationService) Search(ctx context.Context, query string) (*SearchResultDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("search query is required")
	}

	place, err := s.geocoder.Search(ctx, query)
	if err != nil {
		s.logger.Warn("geocoding search failed", zap.String("query", query), zap.Error(err))
		return &SearchResultDTO{Found: false}, nil
	}
	if place == nil {
		return &SearchResultDTO{Found: false}, nil
	}

	loc := bookingDomain.Location{Lat: place.Lat, Lng: place.Lng, Address: place.DisplayAddress}
	if err := loc.Validate(); err != nil {
		s.logger.Warn("geocoder returned an invalid coordinate", zap.String("query", query), zap.Error(err))
		return &SearchResultDTO{Found: false}, nil
	}
	return &SearchResultDTO{Found: true, Location: &loc}, nil
}

// Reverse names a coordinate. When the geocoder fails the address is the
// coordinate itself to 4 decimal places.
func (s *LocationService) Reverse(ctx context.Context, lat, lng float64) (*ReverseResultDTO, error) {
	loc := bookingDomain.Location{Lat: lat, Lng: lng}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	address, err := s.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		s.logger.Warn("reverse geocoding failed, using coordinates",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		loc.Address = bookingDomain.FormatCoordinates(lat, lng)
		return &ReverseResultDTO{Location: loc}, nil
	}

	if strings.TrimSpace(address) == "" {
		address = unknownLocation
	}
	loc.Address = address
	return &ReverseResultDTO{Location: loc, Resolved: true}, nil
}
