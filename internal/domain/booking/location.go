package booking

import (
	"fmt"
	"math"
	"strings"

	"github.com/mmcloughlin/geohash"
)

const (
	geohashPrecision = 7
	geohashAlphabet  = "0123456789bcdefghjkmnpqrstuvwxyz"
)

// Location is one leg of a route. Address is optional and informational.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Validate checks that the coordinate pair is a real point on the globe.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsInf(l.Lat, 0) || math.IsInf(l.Lng, 0) {
		return invalidLocation("coordinates must be finite numbers")
	}
	if l.Lat < -90 || l.Lat > 90 {
		return invalidLocation(fmt.Sprintf("latitude %.6f out of range [-90, 90]", l.Lat))
	}
	if l.Lng < -180 || l.Lng > 180 {
		return invalidLocation(fmt.Sprintf("longitude %.6f out of range [-180, 180]", l.Lng))
	}
	return nil
}

// Geohash encodes the point at neighbourhood precision (~150 m cells).
func (l Location) Geohash() string {
	return geohash.EncodeWithPrecision(l.Lat, l.Lng, geohashPrecision)
}

// ParseRegion normalises a geohash prefix naming the area a listing covers.
// Shorter prefixes cover larger cells; at most the stored precision is allowed.
func ParseRegion(prefix string) (string, error) {
	region := strings.ToLower(strings.TrimSpace(prefix))
	if region == "" || len(region) > geohashPrecision {
		return "", invalidLocation(fmt.Sprintf("region must be a geohash of 1 to %d characters", geohashPrecision))
	}
	for _, ch := range region {
		if !strings.ContainsRune(geohashAlphabet, ch) {
			return "", invalidLocation(fmt.Sprintf("region %q is not a geohash", prefix))
		}
	}
	return region, nil
}

// InRegion reports whether the point lies in the geohash cell region.
func (l Location) InRegion(region string) bool {
	return strings.HasPrefix(l.Geohash(), region)
}

// CoordinateLabel formats the point as "lat, lng" with four decimals.
func (l Location) CoordinateLabel() string {
	return FormatCoordinates(l.Lat, l.Lng)
}

// FormatCoordinates is the pseudo-address used when no geocoded address exists.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}

// requireLegs validates that both legs are present and well-formed.
func requireLegs(pickup, drop *Location) error {
	if pickup == nil {
		return invalidLocation("pickup location is required")
	}
	if drop == nil {
		return invalidLocation("drop location is required")
	}
	if err := pickup.Validate(); err != nil {
		return fmt.Errorf("pickup: %w", err)
	}
	if err := drop.Validate(); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	return nil
}
