package models

import "time"

// Threat is an observed incident produced by the upstream feed ingestion.
// The engine only reads threats; it never mutates or persists them.
type Threat struct {
	ID         string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Severity   float64   `json:"severity,omitempty"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
	Source     string    `json:"source,omitempty"`
}

// GeofencePoint is a watched location inside an itinerary's alert
// configuration. IDs are unique within one itinerary.
type GeofencePoint struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// AlertConfig is an itinerary's alerting configuration, read fresh at the
// start of every evaluation pass. An itinerary participates only when it is
// enabled, has a positive radius and at least one geofence and one channel.
type AlertConfig struct {
	ItineraryUUID string          `json:"itinerary_uuid"`
	Enabled       bool            `json:"enabled"`
	RadiusKm      float64         `json:"radius_km"`
	Geofences     []GeofencePoint `json:"geofences"`
	Channels      []string        `json:"channels"`
}

// Valid reports whether the config qualifies for evaluation.
func (c *AlertConfig) Valid() bool {
	return c.ItineraryUUID != "" &&
		c.Enabled &&
		c.RadiusKm > 0 &&
		len(c.Geofences) > 0 &&
		len(c.Channels) > 0
}

// ItineraryAnchor is the single reference point used by proximity queries
// anchored to a registered itinerary.
type ItineraryAnchor struct {
	ItineraryUUID string  `json:"itinerary_uuid"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusKm      float64 `json:"radius_km"`
}

// DispatchRecord marks that a batched proximity notification went out for an
// itinerary. Used for the coarse itinerary-level cooldown.
type DispatchRecord struct {
	ItineraryUUID string    `json:"itinerary_uuid"`
	ThreatCount   int       `json:"threat_count"`
	DispatchedAt  time.Time `json:"dispatched_at"`
}
