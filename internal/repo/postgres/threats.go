package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/repo"
)

// ThreatStore serves threats from the threats table. The bounding-box filter
// is pushed into SQL so only box candidates cross the wire; exact distance
// filtering stays in the proximity service.
type ThreatStore struct {
	db *pgxpool.Pool
}

func NewThreatStore(db *pgxpool.Pool) *ThreatStore {
	return &ThreatStore{db: db}
}

func (s *ThreatStore) FindInBox(ctx context.Context, q repo.ThreatQuery) ([]models.Threat, error) {
	query := `
		SELECT id, latitude, longitude, severity, observed_at, source
		FROM threats
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		  AND observed_at >= $5
	`
	args := []interface{}{q.MinLat, q.MaxLat, q.MinLon, q.MaxLon, q.Since}

	if len(q.Sources) > 0 {
		query += fmt.Sprintf(" AND source = ANY($%d)", len(args)+1)
		args = append(args, q.Sources)
	}
	query += " ORDER BY observed_at DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query threats in box: %w", err)
	}
	defer rows.Close()

	var threats []models.Threat
	for rows.Next() {
		var t models.Threat
		if err := rows.Scan(&t.ID, &t.Latitude, &t.Longitude, &t.Severity, &t.ObservedAt, &t.Source); err != nil {
			return nil, fmt.Errorf("scan threat row: %w", err)
		}
		threats = append(threats, t)
	}
	return threats, rows.Err()
}
