package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pendingKeyPrefix = "pendingBooking:"

// clearIfMatches deletes the slot only when it still holds the expected id.
var clearIfMatches = redis.NewScript(`
if redis.call("HGET", KEYS[1], "id") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPendingStore keeps one pending booking per user in a Redis hash.
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPendingStore creates a RedisPendingStore. A zero ttl keeps slots forever.
func NewRedisPendingStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisPendingStore {
	return &RedisPendingStore{client: client, ttl: ttl, logger: logger}
}

func pendingKey(userID string) string {
	return pendingKeyPrefix + userID
}

// Put stages pending for userID, replacing any previous one.
func (s *RedisPendingStore) Put(ctx context.Context, userID string, pending *bookingDomain.PendingBooking) error {
	body, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending booking: %w", err)
	}

	key := pendingKey(userID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "id", pending.ID.String(), "body", body)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to stage pending booking: %w", err)
	}
	return nil
}

// Get returns the staged booking. A malformed slot reads as empty.
func (s *RedisPendingStore) Get(ctx context.Context, userID string) (*bookingDomain.PendingBooking, error) {
	body, err := s.client.HGet(ctx, pendingKey(userID), "body").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, bookingDomain.NoPendingBooking()
		}
		return nil, fmt.Errorf("failed to read pending booking: %w", err)
	}

	var pending bookingDomain.PendingBooking
	if err := json.Unmarshal(body, &pending); err != nil {
		s.logger.Warn("discarding malformed pending booking", zap.String("user_id", userID), zap.Error(err))
		return nil, bookingDomain.NoPendingBooking()
	}
	if err := pending.Validate(); err != nil {
		s.logger.Warn("discarding invalid pending booking", zap.String("user_id", userID), zap.Error(err))
		return nil, bookingDomain.NoPendingBooking()
	}
	return &pending, nil
}

// Clear removes the staged booking only if it is still pendingID.
func (s *RedisPendingStore) Clear(ctx context.Context, userID string, pendingID uuid.UUID) (bool, error) {
	n, err := clearIfMatches.Run(ctx, s.client, []string{pendingKey(userID)}, pendingID.String()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to clear pending booking: %w", err)
	}
	return n > 0, nil
}

// Discard empties the slot unconditionally.
func (s *RedisPendingStore) Discard(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, pendingKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to discard pending booking: %w", err)
	}
	return nil
}

type memoryPendingEntry struct {
	pending   bookingDomain.PendingBooking
	expiresAt time.Time
}

// MemoryPendingStore is an in-process PendingStore for single-instance deployments and tests.
type MemoryPendingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryPendingEntry
}

// NewMemoryPendingStore creates a MemoryPendingStore. A zero ttl keeps slots forever.
func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	return &MemoryPendingStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryPendingEntry),
	}
}

// Put stages pending for userID, replacing any previous one.
func (s *MemoryPendingStore) Put(_ context.Context, userID string, pending *bookingDomain.PendingBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryPendingEntry{pending: *pending}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[userID] = entry
	return nil
}

// Get returns a copy of the staged booking.
func (s *MemoryPendingStore) Get(_ context.Context, userID string) (*bookingDomain.PendingBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(userID)
	if !ok {
		return nil, bookingDomain.NoPendingBooking()
	}
	pending := entry.pending
	return &pending, nil
}

// Clear removes the staged booking only if it is still pendingID.
func (s *MemoryPendingStore) Clear(_ context.Context, userID string, pendingID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(userID)
	if !ok || entry.pending.ID != pendingID {
		return false, nil
	}
	delete(s.entries, userID)
	return true, nil
}

// Discard empties the slot unconditionally.
func (s *MemoryPendingStore) Discard(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, userID)
	return nil
}

// live returns the unexpired entry for userID, evicting it if expired. Caller holds mu.
func (s *MemoryPendingStore) live(userID string) (memoryPendingEntry, bool) {
	entry, ok := s.entries[userID]
	if !ok {
		return entry, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, userID)
		return entry, false
	}
	return entry, true
}
