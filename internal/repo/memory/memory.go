package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/repo"
)

// Store is an in-memory implementation of the repository interfaces, used by
// tests and by local development without a database.
type Store struct {
	mu          sync.RWMutex
	threats     []models.Threat
	itineraries map[string]models.ItineraryAnchor
	configs     map[string]models.AlertConfig
	dispatches  map[string][]models.DispatchRecord
}

func NewStore() *Store {
	return &Store{
		itineraries: make(map[string]models.ItineraryAnchor),
		configs:     make(map[string]models.AlertConfig),
		dispatches:  make(map[string][]models.DispatchRecord),
	}
}

func (s *Store) AddThreat(t models.Threat) {
	s.mu.Lock()
	s.threats = append(s.threats, t)
	s.mu.Unlock()
}

func (s *Store) PutItinerary(anchor models.ItineraryAnchor, cfg *models.AlertConfig) {
	s.mu.Lock()
	s.itineraries[anchor.ItineraryUUID] = anchor
	if cfg != nil {
		s.configs[anchor.ItineraryUUID] = *cfg
	}
	s.mu.Unlock()
}

func (s *Store) FindInBox(ctx context.Context, q repo.ThreatQuery) ([]models.Threat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Threat
	for _, t := range s.threats {
		if t.Latitude < q.MinLat || t.Latitude > q.MaxLat ||
			t.Longitude < q.MinLon || t.Longitude > q.MaxLon {
			continue
		}
		if !q.Since.IsZero() && t.ObservedAt.Before(q.Since) {
			continue
		}
		if len(q.Sources) > 0 && !contains(q.Sources, t.Source) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) GetAnchor(ctx context.Context, itineraryUUID string) (*models.ItineraryAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anchor, ok := s.itineraries[itineraryUUID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &anchor, nil
}

func (s *Store) ListEnabledConfigs(ctx context.Context) ([]models.AlertConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AlertConfig
	for _, cfg := range s.configs {
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *Store) LastDispatch(ctx context.Context, itineraryUUID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.dispatches[itineraryUUID]
	if len(recs) == 0 {
		return time.Time{}, false, nil
	}
	latest := recs[0].DispatchedAt
	for _, r := range recs[1:] {
		if r.DispatchedAt.After(latest) {
			latest = r.DispatchedAt
		}
	}
	return latest, true, nil
}

func (s *Store) RecordDispatch(ctx context.Context, rec models.DispatchRecord) error {
	if rec.DispatchedAt.IsZero() {
		rec.DispatchedAt = time.Now()
	}
	s.mu.Lock()
	s.dispatches[rec.ItineraryUUID] = append(s.dispatches[rec.ItineraryUUID], rec)
	s.mu.Unlock()
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
