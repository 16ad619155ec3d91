package tracking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MoveMate/service-booking/internal/domain/booking"
	"go.uber.org/zap"
)

// StatusFunc reports the booking's current stored status.
type StatusFunc func(ctx context.Context) (booking.BookingStatus, error)

// Session drives the simulated live position of one in-transit booking for
// one viewer. It owns a single ticker; Stop is the explicit handle that ends it.
type Session struct {
	trackingID  string
	destination booking.Location
	interval    time.Duration
	status      StatusFunc
	logger      *zap.Logger

	mu      sync.RWMutex
	current booking.Location
	ticks   int

	updates  chan booking.Location
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewSession creates a session starting at start and heading to destination.
func NewSession(
	trackingID string,
	start booking.Location,
	destination booking.Location,
	interval time.Duration,
	status StatusFunc,
	logger *zap.Logger,
) *Session {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Session{
		trackingID:  trackingID,
		destination: destination,
		interval:    interval,
		status:      status,
		logger:      logger,
		current:     start,
		updates:     make(chan booking.Location, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the ticker goroutine. Calls after the first are no-ops.
func (s *Session) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run(ctx)
}

// Stop ends the session and waits for the ticker goroutine to exit.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}

// Updates delivers each new position. Only the latest unread position is kept.
// The channel is closed when the session ends.
func (s *Session) Updates() <-chan booking.Location {
	return s.updates
}

// Done is closed once a started session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Current returns the latest simulated position.
func (s *Session) Current() booking.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Ticks returns how many moves the session has made.
func (s *Session) Ticks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ticks
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.done)
	defer close(s.updates)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			status, err := s.status(ctx)
			if err != nil {
				s.logger.Warn("tracking session status check failed",
					zap.String("tracking_id", s.trackingID),
					zap.Error(err),
				)
				return
			}
			if status != booking.StatusInTransit {
				s.logger.Debug("tracking session ended, booking left transit",
					zap.String("tracking_id", s.trackingID),
					zap.String("status", string(status)),
				)
				return
			}
			s.publish(s.tick())
		}
	}
}

func (s *Session) tick() booking.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Advance(s.current, s.destination)
	s.ticks++
	return s.current
}

func (s *Session) publish(pos booking.Location) {
	select {
	case s.updates <- pos:
		return
	default:
	}
	// Slow reader: replace the stale position.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- pos:
	default:
	}
}
