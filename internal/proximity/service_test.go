package proximity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/repo/memory"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

func newTestService(store *memory.Store) *Service {
	return NewService(store, store, store, DefaultCooldown, DefaultMaxResults, logger.New("error"))
}

func TestThreatsNearItinerary_SortedByDistance(t *testing.T) {
	store := memory.NewStore()
	store.PutItinerary(models.ItineraryAnchor{
		ItineraryUUID: "u1", Latitude: 0, Longitude: 0, RadiusKm: 50,
	}, nil)

	now := time.Now()
	store.AddThreat(models.Threat{ID: "far", Latitude: 0.3, Longitude: 0, ObservedAt: now})
	store.AddThreat(models.Threat{ID: "near", Latitude: 0.05, Longitude: 0, ObservedAt: now})
	store.AddThreat(models.Threat{ID: "mid", Latitude: 0.15, Longitude: 0, ObservedAt: now})
	// Inside the bounding box but outside the exact radius.
	store.AddThreat(models.Threat{ID: "corner", Latitude: 0.44, Longitude: 0.44, ObservedAt: now})

	svc := newTestService(store)
	scored, err := svc.ThreatsNearItinerary(context.Background(), "u1", 24)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, "near", scored[0].Threat.ID)
	assert.Equal(t, "mid", scored[1].Threat.ID)
	assert.Equal(t, "far", scored[2].Threat.ID)
	assert.InDelta(t, 5.55, scored[0].DistanceKm, 0.05)
}

func TestThreatsNearItinerary_LookbackExcludesStale(t *testing.T) {
	store := memory.NewStore()
	store.PutItinerary(models.ItineraryAnchor{
		ItineraryUUID: "u1", Latitude: 0, Longitude: 0, RadiusKm: 50,
	}, nil)
	store.AddThreat(models.Threat{ID: "fresh", Latitude: 0.05, Longitude: 0, ObservedAt: time.Now().Add(-time.Hour)})
	store.AddThreat(models.Threat{ID: "stale", Latitude: 0.05, Longitude: 0.05, ObservedAt: time.Now().Add(-48 * time.Hour)})

	svc := newTestService(store)
	scored, err := svc.ThreatsNearItinerary(context.Background(), "u1", 24)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "fresh", scored[0].Threat.ID)
}

func TestThreatsNearItinerary_UnknownItinerary(t *testing.T) {
	svc := newTestService(memory.NewStore())
	_, err := svc.ThreatsNearItinerary(context.Background(), "missing", 24)
	assert.Error(t, err)
}

func TestThreatsNearItinerary_UnusableAnchor(t *testing.T) {
	store := memory.NewStore()
	store.PutItinerary(models.ItineraryAnchor{ItineraryUUID: "u1", Latitude: 0, Longitude: 0, RadiusKm: 0}, nil)

	svc := newTestService(store)
	_, err := svc.ThreatsNearItinerary(context.Background(), "u1", 24)
	assert.Error(t, err)
}

func TestThreatsNearPoint_CapAndRanking(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	// Two threats at the same spot rank by severity; filler threats beyond the
	// cap get trimmed.
	store.AddThreat(models.Threat{ID: "same-low", Latitude: 0.05, Longitude: 0, Severity: 1, ObservedAt: now})
	store.AddThreat(models.Threat{ID: "same-high", Latitude: 0.05, Longitude: 0, Severity: 5, ObservedAt: now})
	for i := 0; i < 5; i++ {
		store.AddThreat(models.Threat{
			ID:       fmt.Sprintf("filler-%d", i),
			Latitude: 0.1 + 0.01*float64(i), Longitude: 0,
			ObservedAt: now,
		})
	}

	svc := NewService(store, store, store, DefaultCooldown, 4, logger.New("error"))
	scored, err := svc.ThreatsNearPoint(context.Background(), 0, 0, 100, 7, nil)
	require.NoError(t, err)
	require.Len(t, scored, 4)
	assert.Equal(t, "same-high", scored[0].Threat.ID)
	assert.Equal(t, "same-low", scored[1].Threat.ID)
}

func TestThreatsNearPoint_SourceFilter(t *testing.T) {
	store := memory.NewStore()
	now := time.Now()
	store.AddThreat(models.Threat{ID: "gov", Latitude: 0.05, Longitude: 0, Source: "gov-advisory", ObservedAt: now})
	store.AddThreat(models.Threat{ID: "news", Latitude: 0.05, Longitude: 0.01, Source: "news-feed", ObservedAt: now})

	svc := newTestService(store)
	scored, err := svc.ThreatsNearPoint(context.Background(), 0, 0, 100, 7, []string{"gov-advisory"})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "gov", scored[0].Threat.ID)
}

func TestThreatsNearPoint_RejectsBadInput(t *testing.T) {
	svc := newTestService(memory.NewStore())
	ctx := context.Background()

	if _, err := svc.ThreatsNearPoint(ctx, 95, 0, 10, 7, nil); err == nil {
		t.Fatal("expected error for invalid latitude")
	}
	if _, err := svc.ThreatsNearPoint(ctx, 0, 0, -1, 7, nil); err == nil {
		t.Fatal("expected error for non-positive radius")
	}
}

func TestDispatchCooldown(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()

	ok, err := svc.ShouldNotify(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok, "never-notified itinerary should be eligible")

	require.NoError(t, svc.RecordDispatch(ctx, "u1", 3))

	ok, err = svc.ShouldNotify(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok, "fresh dispatch should start the cooldown")

	// An old dispatch on another itinerary does not block this one.
	require.NoError(t, store.RecordDispatch(ctx, models.DispatchRecord{
		ItineraryUUID: "u2", ThreatCount: 1,
		DispatchedAt: time.Now().Add(-7 * time.Hour),
	}))
	ok, err = svc.ShouldNotify(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok, "cooldown should have elapsed")
}
