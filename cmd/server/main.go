package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tripsentry/tripsentry-core/internal/alerting"
	"github.com/tripsentry/tripsentry-core/internal/api"
	"github.com/tripsentry/tripsentry-core/internal/config"
	"github.com/tripsentry/tripsentry-core/internal/counterstore"
	"github.com/tripsentry/tripsentry-core/internal/proximity"
	"github.com/tripsentry/tripsentry-core/internal/repo"
	"github.com/tripsentry/tripsentry-core/internal/repo/memory"
	"github.com/tripsentry/tripsentry-core/internal/repo/postgres"
	"github.com/tripsentry/tripsentry-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel)
	logg.Info("Starting tripsentry-core", "environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Counter store: shared Valkey primary with per-call in-process fallback.
	// Without a configured address the engine runs fallback-only.
	var store counterstore.CounterStore
	if cfg.Cache.Addr != "" {
		primary, err := counterstore.NewValkeyStore(cfg.Cache.Addr, cfg.Cache.DB, cfg.Cache.Password)
		if err != nil {
			logg.Warn("Valkey unreachable at startup; starting on in-process fallback", "error", err)
			store = counterstore.NewDegradedStore(logg)
		} else {
			store = counterstore.NewFailoverStore(primary, counterstore.NewMemoryStore(), logg)
			logg.Info("counter store initialized", "addr", cfg.Cache.Addr)
		}
	} else {
		store = counterstore.NewDegradedStore(logg)
	}

	// Repositories: Postgres when configured, in-memory otherwise.
	var (
		threatStore    repo.ThreatStore
		itineraryStore repo.ItineraryStore
		dispatchStore  repo.DispatchStore
	)
	if cfg.Database.PostgresDSN != "" {
		pool, err := postgres.Connect(ctx, cfg.Database.PostgresDSN)
		if err != nil {
			logg.Fatal("Failed to connect to Postgres", "error", err)
		}
		defer pool.Close()
		threatStore = postgres.NewThreatStore(pool)
		itineraryStore = postgres.NewItineraryStore(pool)
		dispatchStore = postgres.NewDispatchStore(pool)
		logg.Info("Postgres repositories initialized")
	} else {
		mem := memory.NewStore()
		threatStore, itineraryStore, dispatchStore = mem, mem, mem
		logg.Warn("No Postgres DSN configured; using in-memory repositories")
	}

	debounce := alerting.NewDebounceFilter(store, cfg.Alerting.DebounceTTL(), logg)
	limiter := alerting.NewRateLimiter(store, cfg.Alerting.RateLimitWindow(),
		cfg.Alerting.DefaultHourlyLimit, cfg.Alerting.ChannelHourlyLimits, logg)
	evaluator := alerting.NewEvaluator(debounce, limiter, logg)
	proximitySvc := proximity.NewService(threatStore, itineraryStore, dispatchStore,
		cfg.Proximity.Cooldown(), cfg.Proximity.MaxResults, logg)

	// Hot-reload the suppression caps when the config file changes.
	if configPath := "./configs/config.yaml"; fileExists(configPath) {
		watcher := config.NewWatcher(configPath, cfg, logg)
		watcher.Subscribe(func(updated *config.Config) {
			limiter.UpdateLimits(updated.Alerting.DefaultHourlyLimit, updated.Alerting.ChannelHourlyLimits)
			logg.Info("rate limit caps reloaded",
				"default", updated.Alerting.DefaultHourlyLimit)
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logg.Error("configuration watcher stopped", "error", err)
			}
		}()
	}

	apiServer := api.NewServer(cfg, logg, store, evaluator, limiter, proximitySvc, itineraryStore)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logg.Info("Shutdown signal received")
		cancel()
	}()

	if err := apiServer.Start(ctx); err != nil {
		logg.Fatal("Server failed", "error", err)
	}

	logg.Info("tripsentry-core shutdown complete")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
