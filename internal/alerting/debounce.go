package alerting

import (
	"context"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/counterstore"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

// DefaultDebounceTTL suppresses repeat notifications for the same
// (itinerary, geofence, threat) triple for 24 hours.
const DefaultDebounceTTL = 24 * time.Hour

// DebounceFilter deduplicates notifications per incident. The key is a
// deterministic hash of the triple, so suppression is idempotent across
// workers as long as the primary store is reachable.
type DebounceFilter struct {
	store  counterstore.CounterStore
	ttl    time.Duration
	logger logger.Logger
}

func NewDebounceFilter(store counterstore.CounterStore, ttl time.Duration, log logger.Logger) *DebounceFilter {
	if ttl <= 0 {
		ttl = DefaultDebounceTTL
	}
	return &DebounceFilter{store: store, ttl: ttl, logger: log}
}

// IsDebounced reports whether an alert for this triple went out within the
// TTL. Store errors are surfaced so the caller can decide; in practice the
// failover store absorbs primary outages before this layer sees them.
func (d *DebounceFilter) IsDebounced(ctx context.Context, itineraryUUID, geofenceID, threatID string) (bool, error) {
	key := counterstore.DebounceKey(itineraryUUID, geofenceID, threatID)
	return d.store.DebounceCheck(ctx, key)
}

// MarkSent records the triple with the configured TTL. The TTL is fixed per
// filter, not per call.
func (d *DebounceFilter) MarkSent(ctx context.Context, itineraryUUID, geofenceID, threatID string) error {
	key := counterstore.DebounceKey(itineraryUUID, geofenceID, threatID)
	if err := d.store.DebounceMark(ctx, key, d.ttl); err != nil {
		d.logger.Warn("failed to persist debounce mark",
			"itinerary", itineraryUUID, "geofence", geofenceID, "threat", threatID, "error", err)
		return err
	}
	return nil
}
