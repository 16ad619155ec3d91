package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bookingsDocument is the on-disk layout of the file store.
type bookingsDocument struct {
	Bookings []bookingRecord `json:"bookings"`
}

type bookingRecord struct {
	ID          uuid.UUID                  `json:"id"`
	PendingID   uuid.UUID                  `json:"pending_id"`
	TrackingID  string                     `json:"tracking_id"`
	UserID      string                     `json:"user_id"`
	Pickup      bookingDomain.Location     `json:"pickup"`
	Drop        bookingDomain.Location     `json:"drop"`
	ServiceType string                     `json:"service_type"`
	Pricing     bookingDomain.PricingQuote `json:"pricing"`
	Status      string                     `json:"status"`
	CreatedAt   time.Time                  `json:"created_at"`
	ConfirmedAt time.Time                  `json:"confirmed_at"`
	PickedUpAt  *time.Time                 `json:"picked_up_at,omitempty"`
	InTransitAt *time.Time                 `json:"in_transit_at,omitempty"`
	DeliveredAt *time.Time                 `json:"delivered_at,omitempty"`
	CancelledAt *time.Time                 `json:"cancelled_at,omitempty"`
	CancelNote  string                     `json:"cancel_note,omitempty"`
	Version     int64                      `json:"version"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// FileBookingRepository keeps every booking in a single JSON document. Each
// write reads the whole document, modifies it and replaces the file atomically.
type FileBookingRepository struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewFileBookingRepository creates a repository backed by the file at path.
func NewFileBookingRepository(path string, logger *zap.Logger) (*FileBookingRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileBookingRepository{path: path, logger: logger}, nil
}

// FindByTrackingID retrieves a booking by its tracking id.
func (r *FileBookingRepository) FindByTrackingID(_ context.Context, trackingID string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.load().Bookings {
		if rec.TrackingID == trackingID {
			if bk, ok := r.decode(rec); ok {
				return bk, nil
			}
			break
		}
	}
	return nil, bookingDomain.NotFound(trackingID)
}

// FindByPendingID retrieves the booking confirmed from the given pending booking.
func (r *FileBookingRepository) FindByPendingID(_ context.Context, pendingID uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.load().Bookings {
		if rec.PendingID == pendingID {
			if bk, ok := r.decode(rec); ok {
				return bk, nil
			}
			break
		}
	}
	return nil, bookingDomain.NotFound(pendingID.String())
}

// FindByUserID retrieves bookings for a specific user with pagination.
func (r *FileBookingRepository) FindByUserID(_ context.Context, userID string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []bookingRecord
	for _, rec := range r.load().Bookings {
		if rec.UserID == userID {
			matched = append(matched, rec)
		}
	}
	return r.paginate(matched, page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *FileBookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.paginate(r.load().Bookings, page, limit)
}

// ListByStatus retrieves bookings in the given status with pagination (admin).
func (r *FileBookingRepository) ListByStatus(_ context.Context, status bookingDomain.BookingStatus, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []bookingRecord
	for _, rec := range r.load().Bookings {
		if rec.Status == string(status) {
			matched = append(matched, rec)
		}
	}
	return r.paginate(matched, page, limit)
}

// ListByPickupRegion retrieves bookings picked up inside a geohash cell (admin).
func (r *FileBookingRepository) ListByPickupRegion(_ context.Context, region string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []bookingRecord
	for _, rec := range r.load().Bookings {
		if rec.Pickup.InRegion(region) {
			matched = append(matched, rec)
		}
	}
	return r.paginate(matched, page, limit)
}

// TotalsByStatus returns booking counts and revenue grouped by status (admin).
func (r *FileBookingRepository) TotalsByStatus(_ context.Context) (map[bookingDomain.BookingStatus]bookingDomain.StatusTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	totals := make(map[bookingDomain.BookingStatus]bookingDomain.StatusTotals)
	for _, rec := range r.load().Bookings {
		status := bookingDomain.BookingStatus(rec.Status)
		if !status.IsValid() {
			r.logger.Warn("skipping stored booking with unknown status",
				zap.String("tracking_id", rec.TrackingID), zap.String("status", rec.Status))
			continue
		}
		t := totals[status]
		t.Count++
		t.Revenue += rec.Pricing.Total
		totals[status] = t
	}
	return totals, nil
}

// Save appends a new booking.
func (r *FileBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	for _, rec := range doc.Bookings {
		if rec.PendingID == bk.PendingID() {
			return bookingDomain.DuplicateConfirmation()
		}
		if rec.TrackingID == bk.TrackingID() {
			return bookingDomain.ErrTrackingIDTaken
		}
	}
	doc.Bookings = append(doc.Bookings, toRecord(bk))
	return r.write(doc)
}

// Update replaces an existing booking if its stored version is the one the caller read.
func (r *FileBookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	for i, rec := range doc.Bookings {
		if rec.ID != bk.ID() {
			continue
		}
		if rec.Version != bk.Version()-1 {
			return bookingDomain.VersionConflict()
		}
		doc.Bookings[i] = toRecord(bk)
		return r.write(doc)
	}
	return bookingDomain.NotFound(bk.TrackingID())
}

// load reads the document. A missing or malformed file is an empty store.
func (r *FileBookingRepository) load() bookingsDocument {
	var doc bookingsDocument
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("failed to read booking store, treating as empty", zap.String("path", r.path), zap.Error(err))
		}
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("malformed booking store, treating as empty", zap.String("path", r.path), zap.Error(err))
		return bookingsDocument{}
	}
	return doc
}

func (r *FileBookingRepository) write(doc bookingsDocument) error {
	if doc.Bookings == nil {
		doc.Bookings = []bookingRecord{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode booking store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".bookings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write booking store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace booking store: %w", err)
	}
	return nil
}

// decode converts a stored record. Records that no longer decode are logged
// and left out, so one bad entry does not take the store down with it.
func (r *FileBookingRepository) decode(rec bookingRecord) (*bookingDomain.Booking, bool) {
	bk, err := rec.toDomain()
	if err != nil {
		r.logger.Warn("skipping malformed stored booking",
			zap.String("tracking_id", rec.TrackingID),
			zap.Error(err),
		)
		return nil, false
	}
	return bk, true
}

// paginate orders decodable records newest first and slices out a 1-based page.
func (r *FileBookingRepository) paginate(records []bookingRecord, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	valid := make([]*bookingDomain.Booking, 0, len(records))
	for _, rec := range records {
		if bk, ok := r.decode(rec); ok {
			valid = append(valid, bk)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].CreatedAt().After(valid[j].CreatedAt())
	})

	total := int64(len(valid))
	start := (page - 1) * limit
	if start < 0 {
		start = 0
	}
	if start >= len(valid) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := start + limit
	if end > len(valid) {
		end = len(valid)
	}
	return valid[start:end], total, nil
}

func toRecord(bk *bookingDomain.Booking) bookingRecord {
	return bookingRecord{
		ID:          bk.ID(),
		PendingID:   bk.PendingID(),
		TrackingID:  bk.TrackingID(),
		UserID:      bk.UserID(),
		Pickup:      bk.Pickup(),
		Drop:        bk.Drop(),
		ServiceType: string(bk.ServiceType()),
		Pricing:     bk.Pricing(),
		Status:      string(bk.Status()),
		CreatedAt:   bk.CreatedAt(),
		ConfirmedAt: bk.ConfirmedAt(),
		PickedUpAt:  bk.PickedUpAt(),
		InTransitAt: bk.InTransitAt(),
		DeliveredAt: bk.DeliveredAt(),
		CancelledAt: bk.CancelledAt(),
		CancelNote:  bk.CancelNote(),
		Version:     bk.Version(),
		UpdatedAt:   bk.UpdatedAt(),
	}
}

func (rec bookingRecord) toDomain() (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(rec.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructBooking(
		rec.ID,
		rec.PendingID,
		rec.TrackingID,
		rec.UserID,
		rec.Pickup,
		rec.Drop,
		bookingDomain.ServiceType(rec.ServiceType),
		rec.Pricing,
		status,
		rec.CreatedAt,
		rec.ConfirmedAt,
		rec.PickedUpAt,
		rec.InTransitAt,
		rec.DeliveredAt,
		rec.CancelledAt,
		rec.CancelNote,
		rec.Version,
		rec.UpdatedAt,
	), nil
}
