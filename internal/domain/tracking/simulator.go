// Package tracking observes booking status and fabricates a live position for
// bookings that are in transit. It never changes a booking's status.
package tracking

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/MoveMate/service-booking/internal/domain/booking"
)

const (
	// LiveLocationAddress labels every simulated position.
	LiveLocationAddress = "Current Location"

	// DefaultTickInterval is the wall-clock period between simulated moves.
	DefaultTickInterval = 3 * time.Second

	maxJitterDeg   = 0.05
	approachFactor = 0.1
)

// CurrentStepIndex returns the position of status on the tracking timeline.
func CurrentStepIndex(status booking.BookingStatus) (int, error) {
	for i, step := range booking.StatusSteps {
		if step == status {
			return i, nil
		}
	}
	return -1, booking.UnknownStatus(status)
}

// Simulator produces the starting point of a simulated live position.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a Simulator. A nil src seeds from the clock.
func NewSimulator(src rand.Source) *Simulator {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	return &Simulator{rng: rand.New(src)}
}

// InitialLiveLocation returns the midpoint of the route offset by up to
// ±0.05° on each axis.
func (s *Simulator) InitialLiveLocation(pickup, drop booking.Location) booking.Location {
	s.mu.Lock()
	jLat := (s.rng.Float64() - 0.5) * 2 * maxJitterDeg
	jLng := (s.rng.Float64() - 0.5) * 2 * maxJitterDeg
	s.mu.Unlock()

	return booking.Location{
		Lat:     clamp((pickup.Lat+drop.Lat)/2+jLat, -90, 90),
		Lng:     clamp((pickup.Lng+drop.Lng)/2+jLng, -180, 180),
		Address: LiveLocationAddress,
	}
}

// Advance moves current a tenth of the way toward destination. Repeated calls
// shrink the remaining distance by 0.9 per tick without ever reaching zero.
func Advance(current, destination booking.Location) booking.Location {
	return booking.Location{
		Lat:     current.Lat + (destination.Lat-current.Lat)*approachFactor,
		Lng:     current.Lng + (destination.Lng-current.Lng)*approachFactor,
		Address: LiveLocationAddress,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
