package counterstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

// failingStore errors on every call, standing in for an unreachable primary.
type failingStore struct{}

var errUnreachable = errors.New("connection refused")

func (failingStore) DebounceCheck(ctx context.Context, key string) (bool, error) {
	return false, errUnreachable
}
func (failingStore) DebounceMark(ctx context.Context, key string, ttl time.Duration) error {
	return errUnreachable
}
func (failingStore) CountWindow(ctx context.Context, key string, window time.Duration) (int, error) {
	return 0, errUnreachable
}
func (failingStore) IncrementWindow(ctx context.Context, key string, window time.Duration) error {
	return errUnreachable
}
func (failingStore) OldestInWindow(ctx context.Context, key string, window time.Duration) (time.Time, bool, error) {
	return time.Time{}, false, errUnreachable
}

func TestFailoverStore_FallsBackPerCall(t *testing.T) {
	store := NewFailoverStore(failingStore{}, NewMemoryStore(), logger.New("error"))
	ctx := context.Background()

	if err := store.DebounceMark(ctx, "debounce:k", time.Hour); err != nil {
		t.Fatalf("mark should succeed via fallback: %v", err)
	}
	marked, err := store.DebounceCheck(ctx, "debounce:k")
	if err != nil {
		t.Fatalf("check should succeed via fallback: %v", err)
	}
	if !marked {
		t.Fatal("fallback state should persist across calls within the process")
	}

	for i := 0; i < 4; i++ {
		if err := store.IncrementWindow(ctx, "ratelimit:k", time.Hour); err != nil {
			t.Fatalf("increment via fallback: %v", err)
		}
	}
	count, err := store.CountWindow(ctx, "ratelimit:k", time.Hour)
	if err != nil {
		t.Fatalf("count via fallback: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 entries via fallback, got %d", count)
	}
}

func TestFailoverStore_PrefersHealthyPrimary(t *testing.T) {
	primary := NewMemoryStore()
	fallback := NewMemoryStore()
	store := NewFailoverStore(primary, fallback, logger.New("error"))
	ctx := context.Background()

	if err := store.IncrementWindow(ctx, "k", time.Hour); err != nil {
		t.Fatalf("increment: %v", err)
	}

	// The entry must land in the primary, not the fallback.
	if n, _ := primary.CountWindow(ctx, "k", time.Hour); n != 1 {
		t.Fatalf("expected entry in primary, got %d", n)
	}
	if n, _ := fallback.CountWindow(ctx, "k", time.Hour); n != 0 {
		t.Fatalf("fallback should be untouched, got %d", n)
	}
}

func TestDegradedStore_ReportsUnhealthy(t *testing.T) {
	store := NewDegradedStore(logger.New("error"))
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Fatal("degraded store must fail readiness")
	}
}
