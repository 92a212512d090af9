package repo

import (
	"context"
	"errors"
	"time"

	"github.com/tripsentry/tripsentry-core/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ThreatQuery is the data-layer half of a two-phase proximity query: the
// bounding box and time filters run at the source, exact distance filtering
// happens in application code.
type ThreatQuery struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Since          time.Time
	Sources        []string
	Limit          int
}

// ThreatStore serves candidate threats for proximity queries.
type ThreatStore interface {
	FindInBox(ctx context.Context, q ThreatQuery) ([]models.Threat, error)
}

// ItineraryStore serves itinerary anchors and alert configurations. Alert
// configs live in a JSON column on the itinerary row and are read fresh for
// every evaluation pass.
type ItineraryStore interface {
	GetAnchor(ctx context.Context, itineraryUUID string) (*models.ItineraryAnchor, error)
	ListEnabledConfigs(ctx context.Context) ([]models.AlertConfig, error)
}

// DispatchStore persists proximity dispatch records, backing the coarse
// itinerary-level cooldown.
type DispatchStore interface {
	LastDispatch(ctx context.Context, itineraryUUID string) (time.Time, bool, error)
	RecordDispatch(ctx context.Context, rec models.DispatchRecord) error
}
