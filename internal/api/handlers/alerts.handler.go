package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripsentry/tripsentry-core/internal/alerting"
	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/repo"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

type AlertsHandler struct {
	evaluator   *alerting.Evaluator
	limiter     *alerting.RateLimiter
	itineraries repo.ItineraryStore
	logger      logger.Logger
}

func NewAlertsHandler(evaluator *alerting.Evaluator, limiter *alerting.RateLimiter, itineraries repo.ItineraryStore, log logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		evaluator:   evaluator,
		limiter:     limiter,
		itineraries: itineraries,
		logger:      log,
	}
}

type evaluateRequest struct {
	Threats     []models.Threat      `json:"threats"`
	Itineraries []models.AlertConfig `json:"itineraries"`

	// Pointers so an absent flag defaults to true.
	ApplyDebounce     *bool `json:"apply_debounce"`
	ApplyRateLimiting *bool `json:"apply_rate_limiting"`
}

// POST /api/v1/alerts/evaluate
// Runs one evaluation pass over the supplied threats and itinerary configs.
// When no itineraries are supplied the enabled configs are loaded from the
// itinerary store instead.
func (h *AlertsHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "invalid request body: " + err.Error(),
		})
		return
	}

	configs := req.Itineraries
	if len(configs) == 0 && h.itineraries != nil {
		loaded, err := h.itineraries.ListEnabledConfigs(c.Request.Context())
		if err != nil {
			h.logger.Error("failed to load itinerary configs", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": "error",
				"error":  "failed to load itinerary configurations",
			})
			return
		}
		configs = loaded
	}

	opts := alerting.DefaultEvaluateOptions()
	if req.ApplyDebounce != nil {
		opts.ApplyDebounce = *req.ApplyDebounce
	}
	if req.ApplyRateLimiting != nil {
		opts.ApplyRateLimiting = *req.ApplyRateLimiting
	}

	alerts, stats := h.evaluator.Evaluate(c.Request.Context(), req.Threats, configs, opts)
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"alerts": alerts,
		"stats":  stats,
	})
}

// GET /api/v1/alerts/limits/:itinerary?channels=email,sms
// Snapshots the itinerary's current rate-limit windows.
func (h *AlertsHandler) Limits(c *gin.Context) {
	itineraryUUID := c.Param("itinerary")
	if itineraryUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "itinerary is required"})
		return
	}

	var channels []string
	if raw := c.Query("channels"); raw != "" {
		channels = strings.Split(raw, ",")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"itinerary": itineraryUUID,
		"limits":    h.limiter.ChannelStats(c.Request.Context(), itineraryUUID, channels),
	})
}
