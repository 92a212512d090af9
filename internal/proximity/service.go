package proximity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/geo"
	"github.com/tripsentry/tripsentry-core/internal/metrics"
	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/repo"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

const (
	// DefaultCooldown is the itinerary-level window between batched
	// proximity notifications. Coarser than per-incident debounce: this path
	// bundles the top threats into one notification.
	DefaultCooldown = 6 * time.Hour

	// DefaultMaxResults caps unanchored point queries.
	DefaultMaxResults = 50
)

// Service answers two-phase spatial queries: a bounding-box filter at the
// data source followed by exact haversine filtering and ranking here.
type Service struct {
	threats     repo.ThreatStore
	itineraries repo.ItineraryStore
	dispatches  repo.DispatchStore
	cooldown    time.Duration
	maxResults  int
	logger      logger.Logger
}

func NewService(threats repo.ThreatStore, itineraries repo.ItineraryStore, dispatches repo.DispatchStore, cooldown time.Duration, maxResults int, log logger.Logger) *Service {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Service{
		threats:     threats,
		itineraries: itineraries,
		dispatches:  dispatches,
		cooldown:    cooldown,
		maxResults:  maxResults,
		logger:      log,
	}
}

// ThreatsNearItinerary returns threats from the last hoursLookback hours
// within the itinerary's watch radius, nearest first.
func (s *Service) ThreatsNearItinerary(ctx context.Context, itineraryUUID string, hoursLookback int) ([]models.ScoredThreat, error) {
	metrics.ProximityQueriesTotal.WithLabelValues("itinerary").Inc()

	anchor, err := s.itineraries.GetAnchor(ctx, itineraryUUID)
	if err != nil {
		return nil, fmt.Errorf("load itinerary %s: %w", itineraryUUID, err)
	}
	if !geo.ValidateCoordinates(anchor.Latitude, anchor.Longitude) || anchor.RadiusKm <= 0 {
		return nil, fmt.Errorf("itinerary %s has no usable anchor", itineraryUUID)
	}
	if hoursLookback <= 0 {
		hoursLookback = 24
	}

	minLat, maxLat, minLon, maxLon := geo.BoundingBox(anchor.Latitude, anchor.Longitude, anchor.RadiusKm)
	candidates, err := s.threats.FindInBox(ctx, repo.ThreatQuery{
		MinLat: minLat, MaxLat: maxLat,
		MinLon: minLon, MaxLon: maxLon,
		Since: time.Now().Add(-time.Duration(hoursLookback) * time.Hour),
	})
	if err != nil {
		return nil, fmt.Errorf("load threat candidates: %w", err)
	}

	scored := scoreWithin(candidates, anchor.Latitude, anchor.Longitude, anchor.RadiusKm)
	sort.Slice(scored, func(i, j int) bool { return scored[i].DistanceKm < scored[j].DistanceKm })
	return scored, nil
}

// ThreatsNearPoint is the unanchored query shape: same two phases, capped
// result set, ranked by distance then severity.
func (s *Service) ThreatsNearPoint(ctx context.Context, lat, lon, radiusKm float64, days int, sources []string) ([]models.ScoredThreat, error) {
	metrics.ProximityQueriesTotal.WithLabelValues("point").Inc()

	if !geo.ValidateCoordinates(lat, lon) {
		return nil, fmt.Errorf("invalid coordinates: lat=%v lon=%v", lat, lon)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusKm)
	}
	if days <= 0 {
		days = 7
	}

	minLat, maxLat, minLon, maxLon := geo.BoundingBox(lat, lon, radiusKm)
	candidates, err := s.threats.FindInBox(ctx, repo.ThreatQuery{
		MinLat: minLat, MaxLat: maxLat,
		MinLon: minLon, MaxLon: maxLon,
		Since:   time.Now().AddDate(0, 0, -days),
		Sources: sources,
	})
	if err != nil {
		return nil, fmt.Errorf("load threat candidates: %w", err)
	}

	scored := scoreWithin(candidates, lat, lon, radiusKm)
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].DistanceKm != scored[j].DistanceKm {
			return scored[i].DistanceKm < scored[j].DistanceKm
		}
		return scored[i].Threat.Severity > scored[j].Threat.Severity
	})
	if len(scored) > s.maxResults {
		scored = scored[:s.maxResults]
	}
	return scored, nil
}

// ShouldNotify reports whether the itinerary is outside its dispatch
// cooldown window.
func (s *Service) ShouldNotify(ctx context.Context, itineraryUUID string) (bool, error) {
	last, ok, err := s.dispatches.LastDispatch(ctx, itineraryUUID)
	if err != nil {
		return false, fmt.Errorf("load last dispatch: %w", err)
	}
	if !ok {
		return true, nil
	}
	return time.Since(last) >= s.cooldown, nil
}

// RecordDispatch persists a dispatch record, starting the cooldown window.
func (s *Service) RecordDispatch(ctx context.Context, itineraryUUID string, threatCount int) error {
	rec := models.DispatchRecord{
		ItineraryUUID: itineraryUUID,
		ThreatCount:   threatCount,
		DispatchedAt:  time.Now(),
	}
	if err := s.dispatches.RecordDispatch(ctx, rec); err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	s.logger.Debug("proximity dispatch recorded",
		"itinerary", itineraryUUID, "threats", threatCount)
	return nil
}

// scoreWithin keeps candidates whose exact distance from the origin is
// within radiusKm. Threats with invalid coordinates are skipped silently.
func scoreWithin(candidates []models.Threat, lat, lon, radiusKm float64) []models.ScoredThreat {
	scored := make([]models.ScoredThreat, 0, len(candidates))
	for _, t := range candidates {
		if t.ID == "" || !geo.ValidateCoordinates(t.Latitude, t.Longitude) {
			continue
		}
		d := geo.HaversineKm(lat, lon, t.Latitude, t.Longitude)
		if d <= radiusKm {
			scored = append(scored, models.ScoredThreat{Threat: t, DistanceKm: d})
		}
	}
	return scored
}
