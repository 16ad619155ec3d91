package booking

import (
	"testing"
	"time"

	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPending(t *testing.T) *PendingBooking {
	t.Helper()
	p, err := NewPendingBooking(&andheri, &bandra, ServiceMovers, NewStandardPricingStrategy(), time.Now())
	require.NoError(t, err)
	return p
}

func TestNewPendingBooking(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	p, err := NewPendingBooking(&andheri, &bandra, ServiceMovers, NewStandardPricingStrategy(), now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, andheri, p.Pickup)
	assert.Equal(t, bandra, p.Drop)
	assert.Equal(t, now.UTC(), p.CreatedAt)
	assert.Equal(t, int64(1000), p.Pricing.BaseCharge)

	_, err = NewPendingBooking(&andheri, nil, ServiceMovers, NewStandardPricingStrategy(), now)
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = NewPendingBooking(&andheri, &bandra, ServiceType(""), NewStandardPricingStrategy(), now)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestConfirm(t *testing.T) {
	p := newTestPending(t)
	now := time.Now()

	bk, err := Confirm(*p, "user-1", "MM00000001", now)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, bk.Status())
	assert.Equal(t, "MM00000001", bk.TrackingID())
	assert.Equal(t, p.ID, bk.PendingID())
	assert.Equal(t, p.Pricing, bk.Pricing())
	assert.Equal(t, now.UTC(), bk.ConfirmedAt())
	assert.Equal(t, int64(1), bk.Version())
	assert.True(t, bk.IsOwnedBy("user-1"))

	_, err = Confirm(*p, "  ", "MM00000001", now)
	assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))

	_, err = Confirm(PendingBooking{}, "user-1", "MM00000001", now)
	assert.Error(t, err)
}

func TestBooking_AdvanceThroughSteps(t *testing.T) {
	bk, err := Confirm(*newTestPending(t), "user-1", "MM00000002", time.Now())
	require.NoError(t, err)

	for _, next := range StatusSteps[1:] {
		require.NoError(t, bk.AdvanceTo(next, time.Now()))
		assert.Equal(t, next, bk.Status())
	}
	assert.NotNil(t, bk.PickedUpAt())
	assert.NotNil(t, bk.InTransitAt())
	assert.NotNil(t, bk.DeliveredAt())

	err = bk.AdvanceTo(StatusConfirmed, time.Now())
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
}

func TestBooking_AdvanceRejectsSkipsAndCancel(t *testing.T) {
	bk, err := Confirm(*newTestPending(t), "user-1", "MM00000003", time.Now())
	require.NoError(t, err)

	err = bk.AdvanceTo(StatusDelivered, time.Now())
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))

	err = bk.AdvanceTo(StatusCancelled, time.Now())
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))

	err = bk.AdvanceTo(BookingStatus("lost"), time.Now())
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Equal(t, StatusConfirmed, bk.Status())
}

func TestBooking_Cancel(t *testing.T) {
	bk, err := Confirm(*newTestPending(t), "user-1", "MM00000004", time.Now())
	require.NoError(t, err)

	require.NoError(t, bk.Cancel("moving date changed", time.Now()))
	assert.Equal(t, StatusCancelled, bk.Status())
	assert.Equal(t, "moving date changed", bk.CancelNote())
	assert.NotNil(t, bk.CancelledAt())

	err = bk.Cancel("again", time.Now())
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
}

func TestTrackingIDGenerators(t *testing.T) {
	id := TimestampTrackingIDs{}.Generate(time.UnixMilli(1_760_012_345_678))
	assert.Equal(t, "MM12345678", id)
	assert.Regexp(t, `^MM\d{8}$`, TimestampTrackingIDs{}.Generate(time.Now()))

	small := TimestampTrackingIDs{}.Generate(time.UnixMilli(42))
	assert.Equal(t, "MM00000042", small)

	u1 := UUIDTrackingIDs{}.Generate(time.Now())
	u2 := UUIDTrackingIDs{}.Generate(time.Now())
	assert.Regexp(t, `^MM[0-9A-F]{32}$`, u1)
	assert.NotEqual(t, u1, u2)

	g, err := NewTrackingIDGenerator("uuid")
	require.NoError(t, err)
	assert.IsType(t, UUIDTrackingIDs{}, g)

	_, err = NewTrackingIDGenerator("sequence")
	assert.Error(t, err)
}
