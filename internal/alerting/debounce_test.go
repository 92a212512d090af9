package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/counterstore"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

func TestDebounceFilter_Idempotence(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	store := counterstore.NewMemoryStoreWithClock(func() time.Time { return now })
	filter := NewDebounceFilter(store, 24*time.Hour, logger.New("error"))
	ctx := context.Background()

	debounced, err := filter.IsDebounced(ctx, "u1", "g1", "t1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if debounced {
		t.Fatal("fresh triple must not be debounced")
	}

	if err := filter.MarkSent(ctx, "u1", "g1", "t1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	// Repeated checks stay suppressed until the TTL elapses.
	for i := 0; i < 3; i++ {
		if debounced, _ = filter.IsDebounced(ctx, "u1", "g1", "t1"); !debounced {
			t.Fatal("marked triple must be debounced")
		}
	}

	// A different threat for the same geofence is unaffected.
	if debounced, _ = filter.IsDebounced(ctx, "u1", "g1", "t2"); debounced {
		t.Fatal("distinct triple must not be debounced")
	}

	now = now.Add(24*time.Hour + time.Minute)
	if debounced, _ = filter.IsDebounced(ctx, "u1", "g1", "t1"); debounced {
		t.Fatal("triple must clear after the TTL")
	}
}

func TestDebounceFilter_DefaultTTL(t *testing.T) {
	filter := NewDebounceFilter(counterstore.NewMemoryStore(), 0, logger.New("error"))
	if filter.ttl != DefaultDebounceTTL {
		t.Fatalf("expected 24h default TTL, got %v", filter.ttl)
	}
}
