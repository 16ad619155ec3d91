package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/pkg/auth"
	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/MoveMate/service-booking/pkg/events"
	"github.com/MoveMate/service-booking/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	eventSource = "service-booking"

	// maxTrackingIDAttempts bounds regeneration after a tracking id clash.
	maxTrackingIDAttempts = 5

	// maxUpdateAttempts bounds re-reads after an optimistic lock conflict.
	maxUpdateAttempts = 3

	// platformFeePercent is the platform's cut of delivered bookings.
	platformFeePercent = 20
)

// EventPublisher writes CloudEvents to a topic. *kafka.Producer satisfies it.
type EventPublisher interface {
	PublishEventWithKey(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// Actor identifies the caller of a state-changing operation.
type Actor struct {
	UserID string
	Role   auth.Role
}

// QuoteRequest holds a route to price. Missing legs are rejected.
type QuoteRequest struct {
	Pickup      *bookingDomain.Location `json:"pickup"`
	Drop        *bookingDomain.Location `json:"drop"`
	ServiceType string                  `json:"service_type" binding:"required"`
}

// ConfirmRequest optionally names the pending booking the caller expects to confirm.
type ConfirmRequest struct {
	PendingID string `json:"pending_id"`
}

// AdvanceStatusRequest names the next status of a booking.
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CancelRequest carries an optional cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// QuoteDTO is the response representation of a price quote.
type QuoteDTO struct {
	bookingDomain.PricingQuote
	ServiceType  string `json:"service_type"`
	ServiceLabel string `json:"service_label"`
	Currency     string `json:"currency"`
}

// PendingBookingDTO is the response representation of a staged booking.
type PendingBookingDTO struct {
	ID           uuid.UUID                  `json:"id"`
	Pickup       bookingDomain.Location     `json:"pickup"`
	Drop         bookingDomain.Location     `json:"drop"`
	ServiceType  string                     `json:"service_type"`
	ServiceLabel string                     `json:"service_label"`
	Pricing      bookingDomain.PricingQuote `json:"pricing"`
	Currency     string                     `json:"currency"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// BookingDTO is the response representation of a confirmed booking.
type BookingDTO struct {
	ID           uuid.UUID                  `json:"id"`
	TrackingID   string                     `json:"tracking_id"`
	UserID       string                     `json:"user_id"`
	Pickup       bookingDomain.Location     `json:"pickup"`
	Drop         bookingDomain.Location     `json:"drop"`
	ServiceType  string                     `json:"service_type"`
	ServiceLabel string                     `json:"service_label"`
	Pricing      bookingDomain.PricingQuote `json:"pricing"`
	Currency     string                     `json:"currency"`
	Status       string                     `json:"status"`
	StatusLabel  string                     `json:"status_label"`
	CreatedAt    time.Time                  `json:"created_at"`
	ConfirmedAt  time.Time                  `json:"confirmed_at"`
	PickedUpAt   *time.Time                 `json:"picked_up_at,omitempty"`
	InTransitAt  *time.Time                 `json:"in_transit_at,omitempty"`
	DeliveredAt  *time.Time                 `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time                 `json:"cancelled_at,omitempty"`
	CancelNote   string                     `json:"cancel_note,omitempty"`
	Version      int64                      `json:"version"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// BookingStatsDTO summarises all bookings for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
	TotalRevenue  int64            `json:"total_revenue"`
	PlatformFee   int64            `json:"platform_fee"`
	Currency      string           `json:"currency"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	staging   bookingDomain.PendingStore
	pricing   bookingDomain.PricingStrategy
	ids       bookingDomain.TrackingIDGenerator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService. publisher may be nil, in
// which case no events are emitted.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	staging bookingDomain.PendingStore,
	pricing bookingDomain.PricingStrategy,
	ids bookingDomain.TrackingIDGenerator,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		staging:   staging,
		pricing:   pricing,
		ids:       ids,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Quote prices a route without staging anything.
func (s *BookingService) Quote(_ context.Context, req QuoteRequest) (*QuoteDTO, error) {
	serviceType, err := parseServiceType(req.ServiceType)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(req.Pickup, req.Drop, serviceType)
	if err != nil {
		return nil, err
	}

	return &QuoteDTO{
		PricingQuote: quote,
		ServiceType:  string(serviceType),
		ServiceLabel: serviceType.Label(),
		Currency:     domain.CurrencyINR,
	}, nil
}

// StagePending prices the route and places it in the user's staging slot,
// replacing whatever was staged before.
func (s *BookingService) StagePending(ctx context.Context, userID string, req QuoteRequest) (*PendingBookingDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	serviceType, err := parseServiceType(req.ServiceType)
	if err != nil {
		return nil, err
	}

	pending, err := bookingDomain.NewPendingBooking(req.Pickup, req.Drop, serviceType, s.pricing, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.staging.Put(ctx, userID, pending); err != nil {
		return nil, fmt.Errorf("failed to stage pending booking: %w", err)
	}

	s.logger.Info("pending booking staged",
		zap.String("user_id", userID),
		zap.String("pending_id", pending.ID.String()),
		zap.Int64("total", pending.Pricing.Total),
	)

	result := toPendingBookingDTO(pending)
	return &result, nil
}

// GetPending returns the user's staged booking.
func (s *BookingService) GetPending(ctx context.Context, userID string) (*PendingBookingDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	pending, err := s.staging.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := toPendingBookingDTO(pending)
	return &result, nil
}

// DiscardPending abandons the user's staged booking.
func (s *BookingService) DiscardPending(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.staging.Discard(ctx, userID)
}

// Confirm turns the user's staged booking into a persisted booking with a
// tracking id. A staged booking is confirmed at most once: the repository
// rejects a second save of the same pending id and the slot is cleared only
// if it still holds the booking that was confirmed.
func (s *BookingService) Confirm(ctx context.Context, userID string, req ConfirmRequest) (*BookingDTO, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var expected uuid.UUID
	if req.PendingID != "" {
		id, err := uuid.Parse(req.PendingID)
		if err != nil {
			return nil, domain.NewValidationError("invalid pending_id")
		}
		expected = id
	}

	pending, err := s.staging.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, bookingDomain.ErrNoPendingBooking) && expected != uuid.Nil {
			return nil, s.alreadyConfirmedOr(ctx, expected, err)
		}
		return nil, err
	}
	if expected != uuid.Nil && pending.ID != expected {
		return nil, s.alreadyConfirmedOr(ctx, expected, bookingDomain.NoPendingBooking())
	}

	bk, err := s.saveWithTrackingID(ctx, *pending, userID)
	if err != nil {
		if errors.Is(err, bookingDomain.ErrDuplicateConfirmation) {
			s.clearStaged(ctx, userID, pending.ID)
		}
		return nil, err
	}

	s.clearStaged(ctx, userID, pending.ID)

	s.logger.Info("booking confirmed",
		zap.String("tracking_id", bk.TrackingID()),
		zap.String("user_id", userID),
		zap.String("pending_id", pending.ID.String()),
	)
	s.publishBookingConfirmed(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// saveWithTrackingID persists the booking, drawing a fresh tracking id when
// the generated one is already taken.
func (s *BookingService) saveWithTrackingID(ctx context.Context, pending bookingDomain.PendingBooking, userID string) (*bookingDomain.Booking, error) {
	now := s.now()
	for attempt := 0; attempt < maxTrackingIDAttempts; attempt++ {
		trackingID := s.ids.Generate(now.Add(time.Duration(attempt) * time.Millisecond))

		bk, err := bookingDomain.Confirm(pending, userID, trackingID, now)
		if err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, bk)
		if err == nil {
			return bk, nil
		}
		if !errors.Is(err, bookingDomain.ErrTrackingIDTaken) {
			if errors.Is(err, bookingDomain.ErrDuplicateConfirmation) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to save booking: %w", err)
		}
		s.logger.Warn("tracking id collision, regenerating",
			zap.String("tracking_id", trackingID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, domain.NewConflictError("could not allocate a unique tracking ID").Wrap(bookingDomain.ErrTrackingIDTaken)
}

// alreadyConfirmedOr reports DuplicateConfirmation when pendingID was
// confirmed before and fallback otherwise.
func (s *BookingService) alreadyConfirmedOr(ctx context.Context, pendingID uuid.UUID, fallback error) error {
	if _, err := s.repo.FindByPendingID(ctx, pendingID); err == nil {
		return bookingDomain.DuplicateConfirmation()
	}
	return fallback
}

func (s *BookingService) clearStaged(ctx context.Context, userID string, pendingID uuid.UUID) {
	if _, err := s.staging.Clear(ctx, userID, pendingID); err != nil {
		s.logger.Error("failed to clear staged booking",
			zap.String("user_id", userID),
			zap.String("pending_id", pendingID.String()),
			zap.Error(err),
		)
	}
}

// FindByTrackingID looks a booking up by its exact tracking id. Empty or
// blank ids are a miss.
func (s *BookingService) FindByTrackingID(ctx context.Context, trackingID string) (*BookingDTO, error) {
	bk, err := s.findBooking(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

func (s *BookingService) findBooking(ctx context.Context, trackingID string) (*bookingDomain.Booking, error) {
	if isBlank(trackingID) {
		return nil, bookingDomain.NotFound(trackingID)
	}
	return s.repo.FindByTrackingID(ctx, trackingID)
}

// ListUserBookings returns the user's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	bookings, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// AdvanceStatus moves a booking one step forward. Moving to the status the
// booking already has is a no-op, so redelivered provider events are harmless.
// A concurrent update is retried on a fresh read of the booking.
func (s *BookingService) AdvanceStatus(ctx context.Context, trackingID, target, changedBy string) (*BookingDTO, error) {
	status := bookingDomain.BookingStatus(target)
	if !status.IsValid() {
		return nil, bookingDomain.UnknownStatus(status)
	}

	for attempt := 1; ; attempt++ {
		bk, err := s.findBooking(ctx, trackingID)
		if err != nil {
			return nil, err
		}
		if bk.Status() == status {
			result := toBookingDTO(bk)
			return &result, nil
		}

		from := bk.Status()
		if err := bk.AdvanceTo(status, s.now()); err != nil {
			return nil, err
		}
		bk.IncrementVersion()

		if err := s.repo.Update(ctx, bk); err != nil {
			if errors.Is(err, bookingDomain.ErrVersionConflict) && attempt < maxUpdateAttempts {
				s.logger.Debug("booking changed concurrently, retrying status advance",
					zap.String("tracking_id", trackingID),
					zap.Int("attempt", attempt),
				)
				continue
			}
			return nil, err
		}

		s.logger.Info("booking status advanced",
			zap.String("tracking_id", bk.TrackingID()),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
			zap.String("changed_by", changedBy),
		)
		s.publishStatusChanged(ctx, bk, from, changedBy)

		result := toBookingDTO(bk)
		return &result, nil
	}
}

// CancelBooking cancels a booking that has not yet left the pickup point.
// Only the owner or an admin may cancel.
func (s *BookingService) CancelBooking(ctx context.Context, trackingID string, actor Actor, reason string) (*BookingDTO, error) {
	if err := requireUser(actor.UserID); err != nil {
		return nil, err
	}

	bk, err := s.findBooking(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(actor.UserID) && actor.Role != auth.RoleAdmin {
		return nil, domain.NewForbiddenError("only the booking owner can cancel this booking")
	}

	if err := bk.Cancel(reason, s.now()); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("tracking_id", bk.TrackingID()),
		zap.String("cancelled_by", actor.UserID),
	)
	s.publishCancelled(ctx, bk, actor.UserID)

	result := toBookingDTO(bk)
	return &result, nil
}

// ListAllBookings returns every booking, newest first (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListBookingsByStatus returns bookings currently in status, newest first (admin).
func (s *BookingService) ListBookingsByStatus(ctx context.Context, status string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	parsed := bookingDomain.BookingStatus(status)
	if !parsed.IsValid() {
		return nil, bookingDomain.UnknownStatus(parsed)
	}

	bookings, total, err := s.repo.ListByStatus(ctx, parsed, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListBookingsByPickupRegion returns bookings picked up inside the geohash
// cell region, newest first (admin).
func (s *BookingService) ListBookingsByPickupRegion(ctx context.Context, region string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	parsed, err := bookingDomain.ParseRegion(region)
	if err != nil {
		return nil, err
	}

	bookings, total, err := s.repo.ListByPickupRegion(ctx, parsed, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetBookingStats returns booking counts by status, total revenue and the
// platform fee earned on delivered bookings (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	totals, err := s.repo.TotalsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &BookingStatsDTO{
		ByStatus: make(map[string]int64, len(totals)),
		Currency: domain.CurrencyINR,
	}
	for status, t := range totals {
		stats.ByStatus[string(status)] = t.Count
		stats.TotalBookings += t.Count
		stats.TotalRevenue += t.Revenue
	}
	stats.PlatformFee = (totals[bookingDomain.StatusDelivered].Revenue*platformFeePercent + 50) / 100
	return stats, nil
}

// --- Helpers ---

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func requireUser(userID string) error {
	if isBlank(userID) {
		return domain.NewUnauthorizedError("authentication required")
	}
	return nil
}

func parseServiceType(raw string) (bookingDomain.ServiceType, error) {
	st, err := bookingDomain.ParseServiceType(raw)
	if err != nil {
		return "", domain.NewValidationError(err.Error())
	}
	return st, nil
}

func toPendingBookingDTO(p *bookingDomain.PendingBooking) PendingBookingDTO {
	return PendingBookingDTO{
		ID:           p.ID,
		Pickup:       p.Pickup,
		Drop:         p.Drop,
		ServiceType:  string(p.ServiceType),
		ServiceLabel: p.ServiceType.Label(),
		Pricing:      p.Pricing,
		Currency:     domain.CurrencyINR,
		CreatedAt:    p.CreatedAt,
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:           bk.ID(),
		TrackingID:   bk.TrackingID(),
		UserID:       bk.UserID(),
		Pickup:       bk.Pickup(),
		Drop:         bk.Drop(),
		ServiceType:  string(bk.ServiceType()),
		ServiceLabel: bk.ServiceType().Label(),
		Pricing:      bk.Pricing(),
		Currency:     domain.CurrencyINR,
		Status:       string(bk.Status()),
		StatusLabel:  bk.Status().Label(),
		CreatedAt:    bk.CreatedAt(),
		ConfirmedAt:  bk.ConfirmedAt(),
		PickedUpAt:   bk.PickedUpAt(),
		InTransitAt:  bk.InTransitAt(),
		DeliveredAt:  bk.DeliveredAt(),
		CancelledAt:  bk.CancelledAt(),
		CancelNote:   bk.CancelNote(),
		Version:      bk.Version(),
		UpdatedAt:    bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

// --- Events ---

func (s *BookingService) publishBookingConfirmed(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingConfirmedEvent{
		BookingID:   bk.ID().String(),
		TrackingID:  bk.TrackingID(),
		UserID:      bk.UserID(),
		ServiceType: string(bk.ServiceType()),
		PickupLat:   bk.Pickup().Lat,
		PickupLng:   bk.Pickup().Lng,
		DropLat:     bk.Drop().Lat,
		DropLng:     bk.Drop().Lng,
		DistanceKm:  bk.Pricing().DistanceKm,
		Total:       bk.Pricing().Total,
		Currency:    domain.CurrencyINR,
		OccurredAt:  bk.ConfirmedAt(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingConfirmed, bk.TrackingID(), evt)
}

func (s *BookingService) publishStatusChanged(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.BookingStatus, changedBy string) {
	evt := events.BookingStatusChangedEvent{
		BookingID:  bk.ID().String(),
		TrackingID: bk.TrackingID(),
		From:       string(from),
		To:         string(bk.Status()),
		ChangedBy:  changedBy,
		OccurredAt: bk.UpdatedAt(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bk.TrackingID(), evt)
}

func (s *BookingService) publishCancelled(ctx context.Context, bk *bookingDomain.Booking, cancelledBy string) {
	evt := events.BookingCancelledEvent{
		BookingID:   bk.ID().String(),
		TrackingID:  bk.TrackingID(),
		CancelledBy: cancelledBy,
		Reason:      bk.CancelNote(),
		OccurredAt:  bk.UpdatedAt(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.TrackingID(), evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.publisher == nil {
		return
	}

	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEventWithKey(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
