package booking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	andheri = Location{Lat: 19.0760, Lng: 72.8777, Address: "Andheri, Mumbai"}
	bandra  = Location{Lat: 19.0596, Lng: 72.8295, Address: "Bandra, Mumbai"}
)

func TestDistanceKm_Properties(t *testing.T) {
	points := []Location{
		andheri,
		bandra,
		{Lat: 0, Lng: 0},
		{Lat: 89.9, Lng: 179.9},
		{Lat: -45.5, Lng: -120.25},
		{Lat: 0, Lng: 180},
	}

	for _, a := range points {
		assert.InDelta(t, 0, DistanceKm(a, a), 1e-9, "distance to self")
		for _, b := range points {
			ab := DistanceKm(a, b)
			assert.InDelta(t, ab, DistanceKm(b, a), 1e-9, "symmetry")
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, math.Pi*earthRadiusKm+1e-6)
		}
	}
}

func TestDistanceKm_Antipodal(t *testing.T) {
	d := DistanceKm(Location{Lat: 0, Lng: 0}, Location{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*earthRadiusKm, d, 1e-6)
}

func TestQuote_MumbaiRoute(t *testing.T) {
	strategy := NewStandardPricingStrategy()

	q, err := strategy.Quote(&andheri, &bandra, ServiceBoth)
	require.NoError(t, err)

	// Haversine gives 5.38 km; cost is taken on the unrounded distance.
	assert.Equal(t, 5.4, q.DistanceKm)
	assert.Equal(t, int64(1200), q.BaseCharge)
	assert.Equal(t, int64(188), q.DistanceCost)
	assert.Equal(t, int64(1388), q.Subtotal)
	assert.Equal(t, int64(250), q.TaxAmount)
	assert.Equal(t, int64(1638), q.Total)
}

func TestQuote_ZeroDistancePackers(t *testing.T) {
	q, err := NewStandardPricingStrategy().Quote(&andheri, &andheri, ServicePackers)
	require.NoError(t, err)

	assert.Equal(t, 0.0, q.DistanceKm)
	assert.Equal(t, int64(500), q.BaseCharge)
	assert.Equal(t, int64(0), q.DistanceCost)
	assert.Equal(t, int64(90), q.TaxAmount)
	assert.Equal(t, int64(590), q.Total)
}

func TestQuote_BreakdownAddsUpForEveryTier(t *testing.T) {
	strategy := NewStandardPricingStrategy()
	routes := [][2]Location{
		{andheri, bandra},
		{{Lat: 28.6139, Lng: 77.2090}, {Lat: 19.0760, Lng: 72.8777}},
		{{Lat: 12.9716, Lng: 77.5946}, {Lat: 12.9352, Lng: 77.6245}},
	}

	for _, st := range []ServiceType{ServicePackers, ServiceMovers, ServiceBoth} {
		for _, r := range routes {
			pickup, drop := r[0], r[1]
			q, err := strategy.Quote(&pickup, &drop, st)
			require.NoError(t, err)

			assert.Equal(t, StandardRates[st].BaseCharge, q.BaseCharge)
			assert.Equal(t, q.BaseCharge+q.DistanceCost, q.Subtotal)
			assert.Equal(t, q.Subtotal+q.TaxAmount, q.Total)
			assert.Equal(t, (q.Subtotal*18+50)/100, q.TaxAmount)

			again, err := strategy.Quote(&pickup, &drop, st)
			require.NoError(t, err)
			assert.Equal(t, q, again, "quote must be idempotent")
		}
	}
}

func TestQuote_TaxRoundsHalfUp(t *testing.T) {
	// 1025 * 0.18 = 184.5 exactly.
	assert.Equal(t, int64(185), taxOn(1025))
	assert.Equal(t, int64(184), taxOn(1024))
}

func TestQuote_Errors(t *testing.T) {
	strategy := NewStandardPricingStrategy()

	_, err := strategy.Quote(nil, &bandra, ServiceBoth)
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = strategy.Quote(&andheri, nil, ServiceBoth)
	assert.ErrorIs(t, err, ErrInvalidLocation)

	bad := Location{Lat: 91, Lng: 0}
	_, err = strategy.Quote(&andheri, &bad, ServiceBoth)
	assert.ErrorIs(t, err, ErrInvalidLocation)

	nan := Location{Lat: math.NaN(), Lng: 0}
	_, err = strategy.Quote(&nan, &bandra, ServiceBoth)
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = strategy.Quote(&andheri, &bandra, ServiceType("storage"))
	assert.Error(t, err)
}

func TestLocation_GeohashAndLabel(t *testing.T) {
	assert.Len(t, andheri.Geohash(), geohashPrecision)
	assert.Equal(t, "19.0760, 72.8777", andheri.CoordinateLabel())
	assert.Equal(t, "-1.2346, 36.8000", FormatCoordinates(-1.23456, 36.8))
}

func TestParseRegion(t *testing.T) {
	region, err := ParseRegion("  TE7U ")
	require.NoError(t, err)
	assert.Equal(t, "te7u", region)

	full := andheri.Geohash()
	region, err = ParseRegion(full)
	require.NoError(t, err)
	assert.True(t, andheri.InRegion(region))

	for _, bad := range []string{"", "   ", "ai", "te7u-1", full + "0"} {
		_, err := ParseRegion(bad)
		require.Error(t, err, bad)
		assert.ErrorIs(t, err, ErrInvalidLocation, bad)
	}
}

func TestLocation_InRegion(t *testing.T) {
	delhi := Location{Lat: 28.6139, Lng: 77.2090}
	mumbai := andheri.Geohash()[:4]

	assert.True(t, andheri.InRegion(mumbai))
	assert.True(t, bandra.InRegion(andheri.Geohash()[:3]))
	assert.False(t, delhi.InRegion(mumbai))
}
