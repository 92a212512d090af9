package counterstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CounterStore is the shared-state abstraction behind debounce and sliding
// window rate limiting. The primary implementation is backed by Valkey/Redis
// sorted sets; a process-local fallback covers primary outages. Concurrency
// safety across worker processes comes from the primary store's per-key
// atomicity, not from in-process locking.
type CounterStore interface {
	// DebounceCheck reports whether key is currently marked.
	DebounceCheck(ctx context.Context, key string) (bool, error)

	// DebounceMark marks key for ttl. Marking an already marked key extends
	// its expiry.
	DebounceMark(ctx context.Context, key string, ttl time.Duration) error

	// CountWindow returns the number of entries recorded for key within the
	// trailing window. Entries older than the window are pruned lazily on
	// this call.
	CountWindow(ctx context.Context, key string, window time.Duration) (int, error)

	// IncrementWindow appends a now() entry to key's window.
	IncrementWindow(ctx context.Context, key string, window time.Duration) error

	// OldestInWindow returns the oldest entry still inside the window, with
	// ok=false when the window is empty.
	OldestInWindow(ctx context.Context, key string, window time.Duration) (time.Time, bool, error)
}

// Key namespaces. Collision freedom across itineraries, geofences and
// channels comes from the prefix plus the discriminating identifiers.
const (
	debouncePrefix       = "debounce:"
	itineraryLimitPrefix = "ratelimit:itinerary:"
	channelLimitPrefix   = "ratelimit:channel:"
	cooldownPrefix       = "cooldown:itinerary:"
)

// DebounceKey derives the stable suppression key for one
// (itinerary, geofence, threat) triple: sha256 truncated to 16 hex chars.
// The same triple always yields the same key, no matter which worker
// computes it.
func DebounceKey(itineraryUUID, geofenceID, threatID string) string {
	sum := sha256.Sum256([]byte(itineraryUUID + "|" + geofenceID + "|" + threatID))
	return debouncePrefix + hex.EncodeToString(sum[:])[:16]
}

// ItineraryLimitKey is the subject key for the itinerary-wide hourly cap.
func ItineraryLimitKey(itineraryUUID string) string {
	return itineraryLimitPrefix + itineraryUUID
}

// ChannelLimitKey is the subject key for one itinerary's per-channel cap.
func ChannelLimitKey(itineraryUUID, channel string) string {
	return fmt.Sprintf("%s%s:%s", channelLimitPrefix, itineraryUUID, channel)
}

// CooldownKey is the itinerary-level proximity dispatch cooldown key.
func CooldownKey(itineraryUUID string) string {
	return cooldownPrefix + itineraryUUID
}
