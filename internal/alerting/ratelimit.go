package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/counterstore"
	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

const (
	// DefaultRateLimitWindow is the trailing interval the caps apply to.
	DefaultRateLimitWindow = time.Hour

	// DefaultHourlyLimit applies to the itinerary-wide cap and to channels
	// with no configured cap of their own.
	DefaultHourlyLimit = 5
)

// DefaultChannelLimits are the per-channel hourly caps used when the
// configuration does not override them.
func DefaultChannelLimits() map[string]int {
	return map[string]int{
		"email": 10,
		"sms":   3,
	}
}

// RateLimiter enforces sliding-window hourly caps per itinerary and,
// independently, per (itinerary, channel). Exact sliding windows avoid the
// boundary bursts of fixed buckets; the window contents stay inspectable in
// the store for diagnostics.
type RateLimiter struct {
	store  counterstore.CounterStore
	window time.Duration
	logger logger.Logger

	mu            sync.RWMutex
	defaultLimit  int
	channelLimits map[string]int
}

func NewRateLimiter(store counterstore.CounterStore, window time.Duration, defaultLimit int, channelLimits map[string]int, log logger.Logger) *RateLimiter {
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultHourlyLimit
	}
	if channelLimits == nil {
		channelLimits = DefaultChannelLimits()
	}
	return &RateLimiter{
		store:         store,
		window:        window,
		defaultLimit:  defaultLimit,
		channelLimits: channelLimits,
		logger:        log,
	}
}

// ChannelLimit returns the hourly cap for a channel, falling back to the
// default for unknown channels.
func (r *RateLimiter) ChannelLimit(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit, ok := r.channelLimits[channel]; ok {
		return limit
	}
	return r.defaultLimit
}

// DefaultLimit returns the itinerary-wide hourly cap.
func (r *RateLimiter) DefaultLimit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultLimit
}

// UpdateLimits swaps the caps at runtime. Wired to configuration reload;
// in-flight windows are unaffected, only future checks see the new caps.
func (r *RateLimiter) UpdateLimits(defaultLimit int, channelLimits map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if defaultLimit > 0 {
		r.defaultLimit = defaultLimit
	}
	if channelLimits != nil {
		r.channelLimits = channelLimits
	}
}

// Check prunes and counts the itinerary-wide window against the legacy cap.
func (r *RateLimiter) Check(ctx context.Context, itineraryUUID string) (allowed bool, current, limit int, err error) {
	return r.check(ctx, counterstore.ItineraryLimitKey(itineraryUUID), r.DefaultLimit())
}

// CheckChannel prunes and counts one (itinerary, channel) window against the
// channel's cap.
func (r *RateLimiter) CheckChannel(ctx context.Context, itineraryUUID, channel string) (allowed bool, current, limit int, err error) {
	return r.check(ctx, counterstore.ChannelLimitKey(itineraryUUID, channel), r.ChannelLimit(channel))
}

func (r *RateLimiter) check(ctx context.Context, subject string, limit int) (bool, int, int, error) {
	current, err := r.store.CountWindow(ctx, subject, r.window)
	if err != nil {
		return false, 0, limit, err
	}
	return current < limit, current, limit, nil
}

// Increment appends a send to the itinerary-wide window.
func (r *RateLimiter) Increment(ctx context.Context, itineraryUUID string) error {
	return r.store.IncrementWindow(ctx, counterstore.ItineraryLimitKey(itineraryUUID), r.window)
}

// IncrementChannel appends a send to one (itinerary, channel) window.
func (r *RateLimiter) IncrementChannel(ctx context.Context, itineraryUUID, channel string) error {
	return r.store.IncrementWindow(ctx, counterstore.ChannelLimitKey(itineraryUUID, channel), r.window)
}

// Stats snapshots one subject's window. ResetSeconds counts down to the
// moment the next slot frees up (oldest entry leaving the window), not to
// the whole window clearing.
func (r *RateLimiter) Stats(ctx context.Context, subject string, limit int) models.RateLimitStats {
	stats := models.RateLimitStats{Subject: subject, Limit: limit}

	current, err := r.store.CountWindow(ctx, subject, r.window)
	if err != nil {
		r.logger.Warn("rate limit stats unavailable", "subject", subject, "error", err)
		stats.Allowed = true
		stats.Remaining = limit
		return stats
	}

	stats.CurrentCount = current
	stats.Allowed = current < limit
	if remaining := limit - current; remaining > 0 {
		stats.Remaining = remaining
	}

	if oldest, ok, err := r.store.OldestInWindow(ctx, subject, r.window); err == nil && ok {
		reset := r.window - time.Since(oldest)
		if reset < 0 {
			reset = 0
		}
		stats.ResetSeconds = int64(reset.Seconds())
	}
	return stats
}

// ChannelStats snapshots every requested channel for one itinerary, plus the
// itinerary-wide subject under the "_itinerary" key.
func (r *RateLimiter) ChannelStats(ctx context.Context, itineraryUUID string, channels []string) map[string]models.RateLimitStats {
	out := make(map[string]models.RateLimitStats, len(channels)+1)
	out["_itinerary"] = r.Stats(ctx, counterstore.ItineraryLimitKey(itineraryUUID), r.DefaultLimit())
	for _, channel := range channels {
		out[channel] = r.Stats(ctx, counterstore.ChannelLimitKey(itineraryUUID, channel), r.ChannelLimit(channel))
	}
	return out
}
