package application

import (
	"context"
	"sync"
	"time"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/internal/domain/tracking"
	"github.com/MoveMate/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// TrackingStepDTO is one entry of the tracking timeline.
type TrackingStepDTO struct {
	Status    string `json:"status"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// TrackingViewDTO is what a customer sees when looking up a tracking id.
type TrackingViewDTO struct {
	Booking      BookingDTO              `json:"booking"`
	StepIndex    int                     `json:"step_index"`
	Steps        []TrackingStepDTO       `json:"steps"`
	LiveLocation *bookingDomain.Location `json:"live_location,omitempty"`
}

// TrackingService serves tracking lookups and owns the live position sessions.
type TrackingService struct {
	repo      bookingDomain.BookingRepository
	simulator *tracking.Simulator
	interval  time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[*tracking.Session]struct{}
	closed   bool
}

// NewTrackingService creates a new TrackingService. interval is the tick
// period of live sessions.
func NewTrackingService(
	repo bookingDomain.BookingRepository,
	simulator *tracking.Simulator,
	interval time.Duration,
	logger *zap.Logger,
) *TrackingService {
	return &TrackingService{
		repo:      repo,
		simulator: simulator,
		interval:  interval,
		logger:    logger,
		sessions:  make(map[*tracking.Session]struct{}),
	}
}

// Track returns the booking, its position on the timeline and, while the
// booking is in transit, a simulated live location. Cancelled bookings have
// step index -1.
func (s *TrackingService) Track(ctx context.Context, trackingID string) (*TrackingViewDTO, error) {
	bk, err := s.find(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	idx, err := tracking.CurrentStepIndex(bk.Status())
	if err != nil {
		idx = -1
	}

	steps := make([]TrackingStepDTO, len(bookingDomain.StatusSteps))
	for i, st := range bookingDomain.StatusSteps {
		steps[i] = TrackingStepDTO{Status: string(st), Label: st.Label(), Completed: idx >= 0 && i <= idx}
	}

	view := &TrackingViewDTO{
		Booking:   toBookingDTO(bk),
		StepIndex: idx,
		Steps:     steps,
	}
	if bk.Status() == bookingDomain.StatusInTransit {
		live := s.simulator.InitialLiveLocation(bk.Pickup(), bk.Drop())
		view.LiveLocation = &live
	}
	return view, nil
}

// Open starts a live position session for an in-transit booking. The session
// ends when ctx is done, when the caller stops it, or when the stored status
// leaves in_transit.
func (s *TrackingService) Open(ctx context.Context, trackingID string) (*tracking.Session, error) {
	bk, err := s.find(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusInTransit {
		return nil, domain.NewConflictError("live tracking is only available while the booking is in transit")
	}

	status := func(ctx context.Context) (bookingDomain.BookingStatus, error) {
		current, err := s.repo.FindByTrackingID(ctx, trackingID)
		if err != nil {
			return "", err
		}
		return current.Status(), nil
	}

	start := s.simulator.InitialLiveLocation(bk.Pickup(), bk.Drop())
	session := tracking.NewSession(trackingID, start, bk.Drop(), s.interval, status, s.logger)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.NewUnavailableError("live tracking is shutting down")
	}
	s.sessions[session] = struct{}{}
	s.mu.Unlock()

	session.Start(ctx)
	go func() {
		<-session.Done()
		s.mu.Lock()
		delete(s.sessions, session)
		s.mu.Unlock()
	}()

	s.logger.Debug("tracking session opened", zap.String("tracking_id", trackingID))
	return session, nil
}

// ActiveSessions returns the number of running live sessions.
func (s *TrackingService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown stops every running session and refuses new ones.
func (s *TrackingService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	sessions := make([]*tracking.Session, 0, len(s.sessions))
	for session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
	}
}

func (s *TrackingService) find(ctx context.Context, trackingID string) (*bookingDomain.Booking, error) {
	if isBlank(trackingID) {
		return nil, bookingDomain.NotFound(trackingID)
	}
	return s.repo.FindByTrackingID(ctx, trackingID)
}
