//go:build integration

package main_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MoveMate/service-booking/internal/application"
	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProviderStatusUpdated_AdvancesBooking verifies that a provider status
// update published to provider.events moves the booking forward and that the
// change is announced on booking.events.
func TestProviderStatusUpdated_AdvancesBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	userID := uuid.New().String()
	_, confirmed := confirmTestBooking(t, stack.Service, userID)
	assert.Equal(t, "confirmed", confirmed.Status)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := events.ProviderStatusUpdatedEvent{
		TrackingID: confirmed.TrackingID,
		Status:     "picked_up",
		ProviderID: "rider-42",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicProviderEvents,
		"service-provider", events.ProviderStatusUpdated, evt)

	model := waitForBookingStatus(t, infra.DB, confirmed.TrackingID, "picked_up", 15*time.Second)
	assert.NotNil(t, model.PickedUpAt, "picked_up_at should be set")
	assert.Equal(t, int64(2), model.Version)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingStatusChanged, 15*time.Second)

	var changed events.BookingStatusChangedEvent
	require.NoError(t, ce.ParseData(&changed))
	assert.Equal(t, confirmed.TrackingID, changed.TrackingID)
	assert.Equal(t, "confirmed", changed.From)
	assert.Equal(t, "picked_up", changed.To)
	assert.Equal(t, "rider-42", changed.ChangedBy)
}

// TestConfirm_IsAtMostOnce verifies that a staged booking stored in Redis
// becomes exactly one row in Postgres, however often it is confirmed.
func TestConfirm_IsAtMostOnce(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra)
	defer stack.CleanupProducer()

	ctx := context.Background()
	userID := uuid.New().String()
	pending, confirmed := confirmTestBooking(t, stack.Service, userID)
	assert.Equal(t, int64(1638), confirmed.Pricing.Total)

	// The staging slot is empty after a successful confirmation.
	_, err := stack.Service.GetPending(ctx, userID)
	assert.True(t, errors.Is(err, bookingDomain.ErrNoPendingBooking))

	// Replaying the same confirmation is reported as a duplicate.
	_, err = stack.Service.Confirm(ctx, userID, application.ConfirmRequest{PendingID: pending.ID.String()})
	assert.True(t, errors.Is(err, bookingDomain.ErrDuplicateConfirmation))

	// Saving the same aggregate again hits the unique constraints.
	stored, err := stack.Repo.FindByTrackingID(ctx, confirmed.TrackingID)
	require.NoError(t, err)
	err = stack.Repo.Save(ctx, stored)
	assert.True(t, errors.Is(err, bookingDomain.ErrDuplicateConfirmation))

	page, total, err := stack.Repo.FindByUserID(ctx, userID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, pending.ID, page[0].PendingID())

	_, confirmedCount, err := stack.Repo.ListByStatus(ctx, bookingDomain.StatusConfirmed, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), confirmedCount)

	inRegion, regionCount, err := stack.Repo.ListByPickupRegion(ctx, stored.Pickup().Geohash()[:5], 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), regionCount)
	require.Len(t, inRegion, 1)
	assert.Equal(t, confirmed.TrackingID, inRegion[0].TrackingID())

	_, regionCount, err = stack.Repo.ListByPickupRegion(ctx, "zzzz", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, regionCount)

	totals, err := stack.Repo.TotalsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals[bookingDomain.StatusConfirmed].Count)
	assert.Equal(t, int64(1638), totals[bookingDomain.StatusConfirmed].Revenue)
}
