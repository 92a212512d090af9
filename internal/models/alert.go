package models

// AlertEvent is the decision artifact handed to the dispatch layer. It is
// created exactly once per accepted candidate and has no further lifecycle.
type AlertEvent struct {
	ItineraryUUID string   `json:"itinerary_uuid"`
	GeofenceID    string   `json:"geofence_id"`
	DistanceKm    float64  `json:"distance_km"`
	Channels      []string `json:"channels"`
	Threat        Threat   `json:"threat"`
}

// ScoredThreat is a threat annotated with its exact distance from the query
// origin, as returned by proximity queries.
type ScoredThreat struct {
	Threat     Threat  `json:"threat"`
	DistanceKm float64 `json:"distance_km"`
}

// RateLimitStats is a point-in-time snapshot of one rate-limit subject.
type RateLimitStats struct {
	Allowed      bool   `json:"allowed"`
	CurrentCount int    `json:"current_count"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	ResetSeconds int64  `json:"reset_in_seconds"`
	Subject      string `json:"subject,omitempty"`
}

// ItineraryStats is the per-itinerary slice of an evaluation pass.
type ItineraryStats struct {
	Candidates  int                       `json:"candidates"`
	Debounced   int                       `json:"debounced"`
	RateLimited int                       `json:"rate_limited"`
	Allowed     int                       `json:"allowed"`
	RateLimits  map[string]RateLimitStats `json:"rate_limits,omitempty"`
}

// EvaluationStats is rebuilt fresh on every evaluation call and never
// persisted. It is a diagnostic payload, not required for correctness.
type EvaluationStats struct {
	EvaluationID    string                     `json:"evaluation_id"`
	TotalCandidates int                        `json:"total_candidates"`
	Debounced       int                        `json:"debounced"`
	RateLimited     int                        `json:"rate_limited"`
	Allowed         int                        `json:"allowed"`
	PerItinerary    map[string]*ItineraryStats `json:"per_itinerary"`
}

// Itinerary returns the per-itinerary bucket, creating it on first use.
func (s *EvaluationStats) Itinerary(uuid string) *ItineraryStats {
	if s.PerItinerary == nil {
		s.PerItinerary = make(map[string]*ItineraryStats)
	}
	st, ok := s.PerItinerary[uuid]
	if !ok {
		st = &ItineraryStats{}
		s.PerItinerary[uuid] = st
	}
	return st
}
