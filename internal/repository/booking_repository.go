package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PendingID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	TrackingID    string          `gorm:"uniqueIndex;not null;size:40"`
	UserID        string          `gorm:"index;not null;size:64"`
	Status        string          `gorm:"not null;size:30;index"`
	ServiceType   string          `gorm:"not null;size:20"`
	Pickup        json.RawMessage `gorm:"type:jsonb;not null"`
	Drop          json.RawMessage `gorm:"type:jsonb;not null"`
	PickupGeohash string          `gorm:"size:12;index"`
	DropGeohash   string          `gorm:"size:12;index"`
	Pricing       json.RawMessage `gorm:"type:jsonb;not null"`
	Total         int64           `gorm:"not null"`
	Currency      string          `gorm:"not null;size:3;default:'INR'"`
	ConfirmedAt   time.Time       `gorm:"not null"`
	PickedUpAt    *time.Time      `gorm:""`
	InTransitAt   *time.Time      `gorm:""`
	DeliveredAt   *time.Time      `gorm:""`
	CancelledAt   *time.Time      `gorm:""`
	CancelNote    string          `gorm:"size:500"`
	Version       int64           `gorm:"not null;default:1"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByTrackingID retrieves a booking by its tracking id.
func (r *GormBookingRepository) FindByTrackingID(ctx context.Context, trackingID string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.NotFound(trackingID)
		}
		return nil, fmt.Errorf("failed to find booking by tracking ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByPendingID retrieves the booking confirmed from the given pending booking.
func (r *GormBookingRepository) FindByPendingID(ctx context.Context, pendingID uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("pending_id = ?", pendingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingDomain.NotFound(pendingID.String())
		}
		return nil, fmt.Errorf("failed to find booking by pending ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves bookings for a specific user with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx), page, limit)
}

// ListByStatus retrieves bookings in the given status with pagination (admin).
func (r *GormBookingRepository) ListByStatus(ctx context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("status = ?", string(status)), page, limit)
}

// ListByPickupRegion retrieves bookings picked up inside a geohash cell (admin).
// region must already be a validated geohash prefix.
func (r *GormBookingRepository) ListByPickupRegion(ctx context.Context, region string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("pickup_geohash LIKE ?", region+"%"), page, limit)
}

func (r *GormBookingRepository) list(ctx context.Context, scope *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := scope.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}

// Save persists a new booking. Unique indexes on pending_id and tracking_id
// make a second confirmation of the same pending booking fail.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	err = r.db.WithContext(ctx).Create(model).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	var count int64
	if cerr := r.db.WithContext(ctx).Model(&BookingModel{}).Where("pending_id = ?", model.PendingID).Count(&count).Error; cerr != nil {
		return fmt.Errorf("failed to classify duplicate booking: %w", cerr)
	}
	if count > 0 {
		return bookingDomain.DuplicateConfirmation()
	}
	return bookingDomain.ErrTrackingIDTaken
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// The caller has already bumped the version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":        model.Status,
			"picked_up_at":  model.PickedUpAt,
			"in_transit_at": model.InTransitAt,
			"delivered_at":  model.DeliveredAt,
			"cancelled_at":  model.CancelledAt,
			"cancel_note":   model.CancelNote,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingDomain.VersionConflict()
	}
	return nil
}

// TotalsByStatus returns booking counts and revenue grouped by status (admin).
func (r *GormBookingRepository) TotalsByStatus(ctx context.Context) (map[bookingDomain.BookingStatus]bookingDomain.StatusTotals, error) {
	type statusRow struct {
		Status  string
		Count   int64
		Revenue int64
	}
	var rows []statusRow
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count, coalesce(sum(total), 0) as revenue").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to total by status: %w", err)
	}

	totals := make(map[bookingDomain.BookingStatus]bookingDomain.StatusTotals, len(rows))
	for _, row := range rows {
		totals[bookingDomain.BookingStatus(row.Status)] = bookingDomain.StatusTotals{Count: row.Count, Revenue: row.Revenue}
	}
	return totals, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	pickupJSON, err := json.Marshal(bk.Pickup())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pickup: %w", err)
	}
	dropJSON, err := json.Marshal(bk.Drop())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal drop: %w", err)
	}
	pricingJSON, err := json.Marshal(bk.Pricing())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pricing: %w", err)
	}

	return &BookingModel{
		ID:            bk.ID(),
		PendingID:     bk.PendingID(),
		TrackingID:    bk.TrackingID(),
		UserID:        bk.UserID(),
		Status:        string(bk.Status()),
		ServiceType:   string(bk.ServiceType()),
		Pickup:        pickupJSON,
		Drop:          dropJSON,
		PickupGeohash: bk.Pickup().Geohash(),
		DropGeohash:   bk.Drop().Geohash(),
		Pricing:       pricingJSON,
		Total:         bk.Pricing().Total,
		Currency:      domain.CurrencyINR,
		ConfirmedAt:   bk.ConfirmedAt(),
		PickedUpAt:    bk.PickedUpAt(),
		InTransitAt:   bk.InTransitAt(),
		DeliveredAt:   bk.DeliveredAt(),
		CancelledAt:   bk.CancelledAt(),
		CancelNote:    bk.CancelNote(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var pickup, drop bookingDomain.Location
	if err := json.Unmarshal(m.Pickup, &pickup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pickup: %w", err)
	}
	if err := json.Unmarshal(m.Drop, &drop); err != nil {
		return nil, fmt.Errorf("failed to unmarshal drop: %w", err)
	}

	var pricing bookingDomain.PricingQuote
	if err := json.Unmarshal(m.Pricing, &pricing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing: %w", err)
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.PendingID,
		m.TrackingID,
		m.UserID,
		pickup,
		drop,
		bookingDomain.ServiceType(m.ServiceType),
		pricing,
		status,
		m.CreatedAt,
		m.ConfirmedAt,
		m.PickedUpAt,
		m.InTransitAt,
		m.DeliveredAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.UpdatedAt,
	), nil
}
