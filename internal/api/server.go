package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripsentry/tripsentry-core/internal/alerting"
	"github.com/tripsentry/tripsentry-core/internal/api/handlers"
	"github.com/tripsentry/tripsentry-core/internal/api/middleware"
	"github.com/tripsentry/tripsentry-core/internal/config"
	"github.com/tripsentry/tripsentry-core/internal/counterstore"
	"github.com/tripsentry/tripsentry-core/internal/proximity"
	"github.com/tripsentry/tripsentry-core/internal/repo"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

type Server struct {
	config     *config.Config
	logger     logger.Logger
	store      counterstore.CounterStore
	evaluator  *alerting.Evaluator
	limiter    *alerting.RateLimiter
	proximity  *proximity.Service
	itinStore  repo.ItineraryStore
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	store counterstore.CounterStore,
	evaluator *alerting.Evaluator,
	limiter *alerting.RateLimiter,
	proximitySvc *proximity.Service,
	itinStore repo.ItineraryStore,
) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:    cfg,
		logger:    log,
		store:     store,
		evaluator: evaluator,
		limiter:   limiter,
		proximity: proximitySvc,
		itinStore: itinStore,
		router:    router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.MetricsMiddleware())
	s.router.Use(middleware.RateLimiter(s.store, s.config.HTTP.ClientRateLimitPerMinute))

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.store, s.logger)
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	alertsHandler := handlers.NewAlertsHandler(s.evaluator, s.limiter, s.itinStore, s.logger)
	proximityHandler := handlers.NewProximityHandler(s.proximity, s.logger)

	v1 := s.router.Group("/api/v1")
	v1.POST("/alerts/evaluate", alertsHandler.Evaluate)
	v1.GET("/alerts/limits/:itinerary", alertsHandler.Limits)
	v1.GET("/proximity/itinerary/:id", proximityHandler.ThreatsNearItinerary)
	v1.POST("/proximity/itinerary/:id/dispatch", proximityHandler.RecordDispatch)
	v1.GET("/proximity/point", proximityHandler.ThreatsNearPoint)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
