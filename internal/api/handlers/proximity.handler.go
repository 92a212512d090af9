package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tripsentry/tripsentry-core/internal/models"
	"github.com/tripsentry/tripsentry-core/internal/proximity"
	"github.com/tripsentry/tripsentry-core/internal/repo"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

type ProximityHandler struct {
	service *proximity.Service
	logger  logger.Logger
}

func NewProximityHandler(service *proximity.Service, log logger.Logger) *ProximityHandler {
	return &ProximityHandler{service: service, logger: log}
}

// GET /api/v1/proximity/itinerary/:id?hours=24
func (h *ProximityHandler) ThreatsNearItinerary(c *gin.Context) {
	itineraryUUID := c.Param("id")
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))

	threats, err := h.service.ThreatsNearItinerary(c.Request.Context(), itineraryUUID, hours)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "itinerary not found"})
			return
		}
		h.logger.Error("itinerary proximity query failed", "itinerary", itineraryUUID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "proximity query failed"})
		return
	}
	if threats == nil {
		threats = []models.ScoredThreat{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"itinerary": itineraryUUID,
		"threats":   threats,
		"count":     len(threats),
	})
}

// GET /api/v1/proximity/point?lat=..&lon=..&radius_km=..&days=7&sources=a,b
func (h *ProximityHandler) ThreatsNearPoint(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	radius, radErr := strconv.ParseFloat(c.DefaultQuery("radius_km", "50"), 64)
	if latErr != nil || lonErr != nil || radErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "lat, lon and radius_km must be numeric",
		})
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	var sources []string
	if raw := c.Query("sources"); raw != "" {
		sources = strings.Split(raw, ",")
	}

	threats, err := h.service.ThreatsNearPoint(c.Request.Context(), lat, lon, radius, days, sources)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if threats == nil {
		threats = []models.ScoredThreat{}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"threats": threats,
		"count":   len(threats),
	})
}

// POST /api/v1/proximity/itinerary/:id/dispatch
// Records a batched notification dispatch, honoring the itinerary cooldown.
// Returns 409 while the cooldown window is still open.
func (h *ProximityHandler) RecordDispatch(c *gin.Context) {
	itineraryUUID := c.Param("id")

	var body struct {
		ThreatCount int `json:"threat_count"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}

	ok, err := h.service.ShouldNotify(c.Request.Context(), itineraryUUID)
	if err != nil {
		h.logger.Error("cooldown check failed", "itinerary", itineraryUUID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "cooldown check failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{
			"status": "error",
			"error":  "itinerary is in dispatch cooldown",
		})
		return
	}

	if err := h.service.RecordDispatch(c.Request.Context(), itineraryUUID, body.ThreatCount); err != nil {
		h.logger.Error("failed to record dispatch", "itinerary", itineraryUUID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to record dispatch"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "itinerary": itineraryUUID})
}
