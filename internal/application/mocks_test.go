package application

import (
	"context"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/internal/geocoding"
	"github.com/MoveMate/service-booking/pkg/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) FindByTrackingID(ctx context.Context, trackingID string) (*bookingDomain.Booking, error) {
	args := m.Called(ctx, trackingID)
	bk, _ := args.Get(0).(*bookingDomain.Booking)
	return bk, args.Error(1)
}

func (m *mockBookingRepository) FindByPendingID(ctx context.Context, pendingID uuid.UUID) (*bookingDomain.Booking, error) {
	args := m.Called(ctx, pendingID)
	bk, _ := args.Get(0).(*bookingDomain.Booking)
	return bk, args.Error(1)
}

func (m *mockBookingRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	bookings, _ := args.Get(0).([]*bookingDomain.Booking)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	args := m.Called(ctx, page, limit)
	bookings, _ := args.Get(0).([]*bookingDomain.Booking)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingRepository) ListByStatus(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	args := m.Called(ctx, status, page, limit)
	bookings, _ := args.Get(0).([]*bookingDomain.Booking)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingRepository) ListByPickupRegion(ctx context.Context, region string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	args := m.Called(ctx, region, page, limit)
	bookings, _ := args.Get(0).([]*bookingDomain.Booking)
	return bookings, args.Get(1).(int64), args.Error(2)
}

func (m *mockBookingRepository) TotalsByStatus(ctx context.Context) (map[bookingDomain.BookingStatus]bookingDomain.StatusTotals, error) {
	args := m.Called(ctx)
	totals, _ := args.Get(0).(map[bookingDomain.BookingStatus]bookingDomain.StatusTotals)
	return totals, args.Error(1)
}

func (m *mockBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	return m.Called(ctx, bk).Error(0)
}

func (m *mockBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	return m.Called(ctx, bk).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEventWithKey(ctx context.Context, topic, key string, event kafka.CloudEvent) error {
	return m.Called(ctx, topic, key, event).Error(0)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Search(ctx context.Context, query string) (*geocoding.Place, error) {
	args := m.Called(ctx, query)
	place, _ := args.Get(0).(*geocoding.Place)
	return place, args.Error(1)
}

func (m *mockGeocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	args := m.Called(ctx, lat, lng)
	return args.String(0), args.Error(1)
}
