package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrackingIDPrefix starts every public tracking id.
const TrackingIDPrefix = "MM"

// TrackingIDGenerator issues public tracking ids.
type TrackingIDGenerator interface {
	Generate(now time.Time) string
}

// TimestampTrackingIDs derives ids from the last 8 digits of the unix millisecond
// clock. Two confirmations in the same millisecond collide; the repository's
// uniqueness check and the service's retry absorb that.
type TimestampTrackingIDs struct{}

// Generate returns e.g. "MM12345678".
func (TimestampTrackingIDs) Generate(now time.Time) string {
	return fmt.Sprintf("%s%08d", TrackingIDPrefix, now.UnixMilli()%100_000_000)
}

// UUIDTrackingIDs issues collision-resistant ids from a random UUID.
type UUIDTrackingIDs struct{}

// Generate returns the prefix followed by 32 upper-case hex digits.
func (UUIDTrackingIDs) Generate(time.Time) string {
	return TrackingIDPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NewTrackingIDGenerator selects a generator by name ("timestamp" or "uuid").
func NewTrackingIDGenerator(strategy string) (TrackingIDGenerator, error) {
	switch strategy {
	case "", "timestamp":
		return TimestampTrackingIDs{}, nil
	case "uuid":
		return UUIDTrackingIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown tracking id strategy: %s", strategy)
	}
}
