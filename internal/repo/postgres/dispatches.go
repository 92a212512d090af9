package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/tripsentry/tripsentry-core/internal/models"
)

// DispatchStore records batched proximity notifications per itinerary.
type DispatchStore struct {
	db *pgxpool.Pool
}

func NewDispatchStore(db *pgxpool.Pool) *DispatchStore {
	return &DispatchStore{db: db}
}

func (s *DispatchStore) LastDispatch(ctx context.Context, itineraryUUID string) (time.Time, bool, error) {
	query := `
		SELECT dispatched_at
		FROM proximity_dispatches
		WHERE itinerary_uuid = $1
		ORDER BY dispatched_at DESC
		LIMIT 1
	`
	var at time.Time
	err := s.db.QueryRow(ctx, query, itineraryUUID).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last dispatch: %w", err)
	}
	return at, true, nil
}

func (s *DispatchStore) RecordDispatch(ctx context.Context, rec models.DispatchRecord) error {
	query := `
		INSERT INTO proximity_dispatches (itinerary_uuid, threat_count, dispatched_at)
		VALUES ($1, $2, $3)
	`
	if rec.DispatchedAt.IsZero() {
		rec.DispatchedAt = time.Now()
	}
	if _, err := s.db.Exec(ctx, query, rec.ItineraryUUID, rec.ThreatCount, rec.DispatchedAt); err != nil {
		return fmt.Errorf("insert dispatch record: %w", err)
	}
	return nil
}
