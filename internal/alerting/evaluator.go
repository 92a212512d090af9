package alerting

import (
	"context"

	"github.com/google/uuid"

	"github.com/tripsentry/tripsentry-core/internal/geo"
	"github.com/tripsentry/tripsentry-core/internal/metrics"
	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

// EvaluateOptions lets callers disable debounce and rate limiting
// independently for dry runs. A disabled dimension always passes and no
// state is mutated for it.
type EvaluateOptions struct {
	ApplyDebounce      bool
	ApplyRateLimiting  bool
	CollectLimitsStats bool
}

func DefaultEvaluateOptions() EvaluateOptions {
	return EvaluateOptions{
		ApplyDebounce:      true,
		ApplyRateLimiting:  true,
		CollectLimitsStats: true,
	}
}

// Evaluator orchestrates one synchronous evaluation pass: geospatial
// candidate matching, then debounce, then rate limiting. It holds no state
// of its own beyond its collaborators and is safe to call from several
// goroutines as long as the underlying store is.
type Evaluator struct {
	debounce *DebounceFilter
	limiter  *RateLimiter
	logger   logger.Logger
}

func NewEvaluator(debounce *DebounceFilter, limiter *RateLimiter, log logger.Logger) *Evaluator {
	return &Evaluator{debounce: debounce, limiter: limiter, logger: log}
}

// Evaluate walks itinerary x geofence x threat, applying the bounding-box
// pre-filter before the exact distance check, and returns the accepted
// alerts plus accounting for every suppression.
//
// Side effects (debounce mark, window increments) happen immediately on
// acceptance, so a later candidate in the same call observes the budget an
// earlier one consumed. No single failing triple aborts the pass.
func (e *Evaluator) Evaluate(ctx context.Context, threats []models.Threat, configs []models.AlertConfig, opts EvaluateOptions) ([]models.AlertEvent, *models.EvaluationStats) {
	stats := &models.EvaluationStats{
		EvaluationID: uuid.NewString(),
		PerItinerary: make(map[string]*models.ItineraryStats),
	}
	metrics.EvaluationsTotal.Inc()

	var alerts []models.AlertEvent
	for i := range configs {
		cfg := &configs[i]
		if !cfg.Valid() {
			e.logger.Debug("itinerary skipped by configuration",
				"itinerary", cfg.ItineraryUUID, "enabled", cfg.Enabled)
			continue
		}

		itStats := stats.Itinerary(cfg.ItineraryUUID)
		for _, fence := range cfg.Geofences {
			if fence.ID == "" || !geo.ValidateCoordinates(fence.Latitude, fence.Longitude) {
				continue
			}
			minLat, maxLat, minLon, maxLon := geo.BoundingBox(fence.Latitude, fence.Longitude, cfg.RadiusKm)

			for j := range threats {
				threat := &threats[j]
				if threat.ID == "" || !geo.ValidateCoordinates(threat.Latitude, threat.Longitude) {
					continue
				}
				if !geo.InBox(threat.Latitude, threat.Longitude, minLat, maxLat, minLon, maxLon) {
					continue
				}
				distance := geo.HaversineKm(fence.Latitude, fence.Longitude, threat.Latitude, threat.Longitude)
				if distance > cfg.RadiusKm {
					continue
				}

				stats.TotalCandidates++
				itStats.Candidates++
				metrics.CandidatesTotal.Inc()

				if event, outcome := e.evaluateCandidate(ctx, cfg, fence, threat, distance, opts); outcome != outcomeSkipped {
					switch outcome {
					case outcomeDebounced:
						stats.Debounced++
						itStats.Debounced++
						metrics.AlertsSuppressed.WithLabelValues("debounced").Inc()
					case outcomeRateLimited:
						stats.RateLimited++
						itStats.RateLimited++
						metrics.AlertsSuppressed.WithLabelValues("rate_limited").Inc()
					case outcomeAccepted:
						stats.Allowed++
						itStats.Allowed++
						metrics.AlertsAllowed.Inc()
						alerts = append(alerts, *event)
					}
				}
			}
		}

		if opts.CollectLimitsStats && opts.ApplyRateLimiting {
			itStats.RateLimits = e.limiter.ChannelStats(ctx, cfg.ItineraryUUID, cfg.Channels)
		}
	}

	e.logger.Info("evaluation pass complete",
		"evaluation_id", stats.EvaluationID,
		"candidates", stats.TotalCandidates,
		"debounced", stats.Debounced,
		"rate_limited", stats.RateLimited,
		"allowed", stats.Allowed)
	return alerts, stats
}

type candidateOutcome int

const (
	outcomeSkipped candidateOutcome = iota
	outcomeDebounced
	outcomeRateLimited
	outcomeAccepted
)

// evaluateCandidate runs one triple through debounce then rate limiting.
// Debounce runs first so a duplicate never consumes rate-limit budget.
// Triples whose checks error out are skipped without being counted in any
// suppression bucket.
func (e *Evaluator) evaluateCandidate(ctx context.Context, cfg *models.AlertConfig, fence models.GeofencePoint, threat *models.Threat, distance float64, opts EvaluateOptions) (*models.AlertEvent, candidateOutcome) {
	if opts.ApplyDebounce {
		debounced, err := e.debounce.IsDebounced(ctx, cfg.ItineraryUUID, fence.ID, threat.ID)
		if err != nil {
			e.logger.Warn("debounce check failed; candidate not evaluated",
				"itinerary", cfg.ItineraryUUID, "threat", threat.ID, "error", err)
			return nil, outcomeSkipped
		}
		if debounced {
			return nil, outcomeDebounced
		}
	}

	channels := cfg.Channels
	if opts.ApplyRateLimiting {
		allowed, _, _, err := e.limiter.Check(ctx, cfg.ItineraryUUID)
		if err != nil {
			e.logger.Warn("rate limit check failed; candidate not evaluated",
				"itinerary", cfg.ItineraryUUID, "threat", threat.ID, "error", err)
			return nil, outcomeSkipped
		}
		if !allowed {
			return nil, outcomeRateLimited
		}

		channels = channels[:0:0]
		for _, channel := range cfg.Channels {
			chAllowed, _, _, err := e.limiter.CheckChannel(ctx, cfg.ItineraryUUID, channel)
			if err != nil {
				e.logger.Warn("channel rate limit check failed",
					"itinerary", cfg.ItineraryUUID, "channel", channel, "error", err)
				continue
			}
			if chAllowed {
				channels = append(channels, channel)
			}
		}
		if len(channels) == 0 {
			return nil, outcomeRateLimited
		}
	}

	event := &models.AlertEvent{
		ItineraryUUID: cfg.ItineraryUUID,
		GeofenceID:    fence.ID,
		DistanceKm:    distance,
		Channels:      channels,
		Threat:        *threat,
	}

	// Bookkeeping is eventually consistent with the returned event: if a
	// write fails after acceptance the alert still goes out, at the cost of
	// a possible duplicate on the next pass.
	if opts.ApplyDebounce {
		_ = e.debounce.MarkSent(ctx, cfg.ItineraryUUID, fence.ID, threat.ID)
	}
	if opts.ApplyRateLimiting {
		if err := e.limiter.Increment(ctx, cfg.ItineraryUUID); err != nil {
			e.logger.Warn("failed to record itinerary send", "itinerary", cfg.ItineraryUUID, "error", err)
		}
		for _, channel := range channels {
			if err := e.limiter.IncrementChannel(ctx, cfg.ItineraryUUID, channel); err != nil {
				e.logger.Warn("failed to record channel send",
					"itinerary", cfg.ItineraryUUID, "channel", channel, "error", err)
			}
		}
	}

	return event, outcomeAccepted
}
