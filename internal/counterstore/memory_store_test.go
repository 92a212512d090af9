package counterstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_DebounceLifecycle(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	marked, err := store.DebounceCheck(ctx, "debounce:abc")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if marked {
		t.Fatal("expected key unmarked before mark")
	}

	if err := store.DebounceMark(ctx, "debounce:abc", 24*time.Hour); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if marked, _ = store.DebounceCheck(ctx, "debounce:abc"); !marked {
		t.Fatal("expected key marked after mark")
	}

	// Still marked just before the TTL elapses
	now = now.Add(24*time.Hour - time.Second)
	if marked, _ = store.DebounceCheck(ctx, "debounce:abc"); !marked {
		t.Fatal("expected key still marked before TTL expiry")
	}

	// Expired after the TTL
	now = now.Add(2 * time.Second)
	if marked, _ = store.DebounceCheck(ctx, "debounce:abc"); marked {
		t.Fatal("expected key expired after TTL")
	}
}

func TestMemoryStore_WindowCountAndPrune(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()
	window := time.Hour

	for i := 0; i < 3; i++ {
		if err := store.IncrementWindow(ctx, "ratelimit:itinerary:u1", window); err != nil {
			t.Fatalf("increment: %v", err)
		}
		now = now.Add(time.Minute)
	}

	count, err := store.CountWindow(ctx, "ratelimit:itinerary:u1", window)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 entries, got %d", count)
	}

	// Advance past the first entry's expiry; it was recorded 1h+ ago now.
	now = now.Add(window - 2*time.Minute)
	if count, _ = store.CountWindow(ctx, "ratelimit:itinerary:u1", window); count != 2 {
		t.Fatalf("expected 2 entries after partial expiry, got %d", count)
	}

	// Everything expired
	now = now.Add(window)
	if count, _ = store.CountWindow(ctx, "ratelimit:itinerary:u1", window); count != 0 {
		t.Fatalf("expected empty window, got %d", count)
	}
}

func TestMemoryStore_OldestInWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	first := now
	store := NewMemoryStoreWithClock(func() time.Time { return now })
	ctx := context.Background()

	if _, ok, _ := store.OldestInWindow(ctx, "k", time.Hour); ok {
		t.Fatal("expected no oldest entry in empty window")
	}

	_ = store.IncrementWindow(ctx, "k", time.Hour)
	now = now.Add(10 * time.Minute)
	_ = store.IncrementWindow(ctx, "k", time.Hour)

	oldest, ok, err := store.OldestInWindow(ctx, "k", time.Hour)
	if err != nil {
		t.Fatalf("oldest: %v", err)
	}
	if !ok || !oldest.Equal(first) {
		t.Fatalf("expected oldest %v, got %v (ok=%v)", first, oldest, ok)
	}

	// First entry ages out; the second becomes oldest.
	now = now.Add(55 * time.Minute)
	oldest, ok, _ = store.OldestInWindow(ctx, "k", time.Hour)
	if !ok || !oldest.Equal(first.Add(10*time.Minute)) {
		t.Fatalf("expected second entry as oldest, got %v (ok=%v)", oldest, ok)
	}
}

func TestDebounceKeyDeterministic(t *testing.T) {
	a := DebounceKey("u1", "g1", "t1")
	b := DebounceKey("u1", "g1", "t1")
	if a != b {
		t.Fatalf("same triple must hash identically: %s vs %s", a, b)
	}
	if len(a) != len(debouncePrefix)+16 {
		t.Fatalf("expected 16 hex chars after prefix, got %q", a)
	}
	if DebounceKey("u1", "g1", "t2") == a {
		t.Fatal("different triple must hash differently")
	}
	// Discriminator placement matters: (u1|g1x, t1) != (u1, g1, xt1)
	if DebounceKey("u1", "g1x", "t1") == DebounceKey("u1", "g1", "xt1") {
		t.Fatal("field boundaries must be preserved in the hash input")
	}
}
