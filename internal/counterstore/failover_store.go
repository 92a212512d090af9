package counterstore

import (
	"context"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/metrics"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

// FailoverStore tries the primary backend first and, on any error, serves
// that single call from the in-process fallback. There is no circuit state:
// the next call tries the primary again, so calls may alternate backends
// while the primary flaps. Callers above this layer never branch on backend
// type.
type FailoverStore struct {
	primary  CounterStore
	fallback CounterStore
	logger   logger.Logger
}

func NewFailoverStore(primary, fallback CounterStore, log logger.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   log,
	}
}

// NewDegradedStore builds a store with no primary at all. Used in local
// development when no Valkey endpoint is configured.
func NewDegradedStore(log logger.Logger) *FailoverStore {
	log.Warn("no primary counter store configured; debounce and rate limits are process-local")
	return &FailoverStore{fallback: NewMemoryStore(), logger: log}
}

func (f *FailoverStore) DebounceCheck(ctx context.Context, key string) (bool, error) {
	if f.primary != nil {
		marked, err := f.primary.DebounceCheck(ctx, key)
		if err == nil {
			return marked, nil
		}
		f.failover("debounce_check", err)
	}
	return f.fallback.DebounceCheck(ctx, key)
}

func (f *FailoverStore) DebounceMark(ctx context.Context, key string, ttl time.Duration) error {
	if f.primary != nil {
		if err := f.primary.DebounceMark(ctx, key, ttl); err == nil {
			return nil
		} else {
			f.failover("debounce_mark", err)
		}
	}
	return f.fallback.DebounceMark(ctx, key, ttl)
}

func (f *FailoverStore) CountWindow(ctx context.Context, key string, window time.Duration) (int, error) {
	if f.primary != nil {
		count, err := f.primary.CountWindow(ctx, key, window)
		if err == nil {
			return count, nil
		}
		f.failover("count_window", err)
	}
	return f.fallback.CountWindow(ctx, key, window)
}

func (f *FailoverStore) IncrementWindow(ctx context.Context, key string, window time.Duration) error {
	if f.primary != nil {
		if err := f.primary.IncrementWindow(ctx, key, window); err == nil {
			return nil
		} else {
			f.failover("increment_window", err)
		}
	}
	return f.fallback.IncrementWindow(ctx, key, window)
}

func (f *FailoverStore) OldestInWindow(ctx context.Context, key string, window time.Duration) (time.Time, bool, error) {
	if f.primary != nil {
		oldest, ok, err := f.primary.OldestInWindow(ctx, key, window)
		if err == nil {
			return oldest, ok, nil
		}
		f.failover("oldest_in_window", err)
	}
	return f.fallback.OldestInWindow(ctx, key, window)
}

func (f *FailoverStore) failover(operation string, err error) {
	f.logger.Warn("primary counter store call failed; using in-process fallback",
		"operation", operation, "error", err)
	metrics.RecordFailover(operation)
}

// HealthCheck reports primary connectivity. A degraded store reports
// unhealthy so readiness probes can surface the outage.
func (f *FailoverStore) HealthCheck(ctx context.Context) error {
	type storeHealth interface{ HealthCheck(context.Context) error }
	if f.primary != nil {
		if hc, ok := f.primary.(storeHealth); ok {
			return hc.HealthCheck(ctx)
		}
		return nil
	}
	return errNoPrimary
}

var errNoPrimary = &degradedError{}

type degradedError struct{}

func (*degradedError) Error() string {
	return "counter store running on in-process fallback (no primary connected)"
}
