package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/repo"
)

// ItineraryStore reads itinerary anchors and alert configurations. The
// alert configuration lives in a JSONB column on the itinerary row, so it is
// always read fresh for an evaluation pass.
type ItineraryStore struct {
	db *pgxpool.Pool
}

func NewItineraryStore(db *pgxpool.Pool) *ItineraryStore {
	return &ItineraryStore{db: db}
}

func (s *ItineraryStore) GetAnchor(ctx context.Context, itineraryUUID string) (*models.ItineraryAnchor, error) {
	query := `
		SELECT itinerary_uuid, latitude, longitude, radius_km
		FROM itineraries
		WHERE itinerary_uuid = $1
	`
	var a models.ItineraryAnchor
	err := s.db.QueryRow(ctx, query, itineraryUUID).
		Scan(&a.ItineraryUUID, &a.Latitude, &a.Longitude, &a.RadiusKm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query itinerary anchor: %w", err)
	}
	return &a, nil
}

func (s *ItineraryStore) ListEnabledConfigs(ctx context.Context) ([]models.AlertConfig, error) {
	query := `
		SELECT itinerary_uuid, alert_config
		FROM itineraries
		WHERE (alert_config->>'enabled')::boolean = true
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query alert configs: %w", err)
	}
	defer rows.Close()

	var configs []models.AlertConfig
	for rows.Next() {
		var uuid string
		var raw []byte
		if err := rows.Scan(&uuid, &raw); err != nil {
			return nil, fmt.Errorf("scan itinerary row: %w", err)
		}
		var cfg models.AlertConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			// A malformed config disqualifies one itinerary, not the pass.
			continue
		}
		cfg.ItineraryUUID = uuid
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
