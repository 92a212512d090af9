package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripsentry/tripsentry-core/internal/counterstore"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

type HealthHandler struct {
	store  counterstore.CounterStore
	logger logger.Logger
}

func NewHealthHandler(store counterstore.CounterStore, log logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: log}
}

// GET /health - Quick health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "tripsentry-core",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// GET /ready - Readiness depends on primary counter store connectivity.
// Degraded (fallback-only) mode reports unhealthy so orchestration can see
// the outage, even though evaluation keeps working.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	resp := gin.H{
		"service":   "tripsentry-core",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	type storeHealth interface{ HealthCheck(context.Context) error }
	if hc, ok := h.store.(storeHealth); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			resp["error"] = err.Error()
		}
	}

	resp["status"] = status
	c.JSON(httpStatus, resp)
}
