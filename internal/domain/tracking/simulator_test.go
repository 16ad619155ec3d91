package tracking

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pickup = booking.Location{Lat: 19.0760, Lng: 72.8777}
	drop   = booking.Location{Lat: 19.0596, Lng: 72.8295}
)

func TestCurrentStepIndex(t *testing.T) {
	want := map[booking.BookingStatus]int{
		booking.StatusConfirmed: 0,
		booking.StatusPickedUp:  1,
		booking.StatusInTransit: 2,
		booking.StatusDelivered: 3,
	}
	prev := -1
	for _, s := range booking.StatusSteps {
		idx, err := CurrentStepIndex(s)
		require.NoError(t, err)
		assert.Equal(t, want[s], idx)
		assert.Greater(t, idx, prev)
		prev = idx
	}

	_, err := CurrentStepIndex(booking.StatusCancelled)
	assert.ErrorIs(t, err, booking.ErrUnknownStatus)
	_, err = CurrentStepIndex("")
	assert.ErrorIs(t, err, booking.ErrUnknownStatus)
}

func TestInitialLiveLocation_WithinJitter(t *testing.T) {
	sim := NewSimulator(rand.NewPCG(7, 11))
	midLat := (pickup.Lat + drop.Lat) / 2
	midLng := (pickup.Lng + drop.Lng) / 2

	for i := 0; i < 500; i++ {
		loc := sim.InitialLiveLocation(pickup, drop)
		assert.LessOrEqual(t, math.Abs(loc.Lat-midLat), maxJitterDeg)
		assert.LessOrEqual(t, math.Abs(loc.Lng-midLng), maxJitterDeg)
		assert.Equal(t, LiveLocationAddress, loc.Address)
	}
}

func TestInitialLiveLocation_ClampsNearPole(t *testing.T) {
	sim := NewSimulator(nil)
	north := booking.Location{Lat: 90, Lng: 0}
	for i := 0; i < 100; i++ {
		loc := sim.InitialLiveLocation(north, north)
		assert.LessOrEqual(t, loc.Lat, 90.0)
	}
}

func TestAdvance_Converges(t *testing.T) {
	starts := []booking.Location{
		{Lat: 19.07, Lng: 72.85},
		{Lat: -33.86, Lng: 151.2},
		{Lat: 0, Lng: 0},
	}
	for _, p := range starts {
		cur := p
		for i := 0; i < 50; i++ {
			before := planarDistance(cur, drop)
			next := Advance(cur, drop)
			after := planarDistance(next, drop)
			assert.InDelta(t, 0.9*before, after, 1e-9)
			assert.Equal(t, LiveLocationAddress, next.Address)
			cur = next
		}
		assert.NotEqual(t, drop.Lat, cur.Lat, "never lands exactly on the destination")
	}
}

func TestAdvance_LinearStep(t *testing.T) {
	next := Advance(booking.Location{Lat: 10, Lng: 20}, booking.Location{Lat: 20, Lng: 0})
	assert.InDelta(t, 11, next.Lat, 1e-12)
	assert.InDelta(t, 18, next.Lng, 1e-12)
}

func TestAdvance_ShrinksGreatCircleDistanceOnShortRoutes(t *testing.T) {
	cur := booking.Location{Lat: 19.1, Lng: 72.9}
	for i := 0; i < 20; i++ {
		before := booking.DistanceKm(cur, drop)
		cur = Advance(cur, drop)
		assert.LessOrEqual(t, booking.DistanceKm(cur, drop), 0.9*before*1.001)
	}
}

// planarDistance is the distance in degree space, which Advance scales exactly.
func planarDistance(a, b booking.Location) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}
