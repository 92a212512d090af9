package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration with priority order:
// 1. Environment variables (TRIPSENTRY_*)
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/tripsentry/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("TRIPSENTRY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	// Counter store defaults (Valkey single node)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)

	// Persistence defaults; empty DSN selects the in-memory repositories
	v.SetDefault("database.postgres_dsn", "")

	// Suppression defaults: 1h sliding windows, 24h debounce,
	// email 10/h, sms 3/h, anything else 5/h
	v.SetDefault("alerting.rate_limit_window_seconds", 3600)
	v.SetDefault("alerting.debounce_ttl_seconds", 86400)
	v.SetDefault("alerting.default_hourly_limit", 5)
	v.SetDefault("alerting.channel_hourly_limits", map[string]int{
		"email": 10,
		"sms":   3,
	})

	// Proximity defaults
	v.SetDefault("proximity.cooldown_hours", 6)
	v.SetDefault("proximity.max_results", 50)
	v.SetDefault("proximity.default_lookback_hours", 24)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 3600)

	// HTTP middleware defaults
	v.SetDefault("http.client_rate_limit_per_minute", 1000)
}

func validateConfig(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Alerting.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %d", cfg.Alerting.RateLimitWindowSeconds)
	}
	if cfg.Alerting.DebounceTTLSeconds <= 0 {
		return fmt.Errorf("debounce TTL must be positive, got %d", cfg.Alerting.DebounceTTLSeconds)
	}
	if cfg.Alerting.DefaultHourlyLimit <= 0 {
		return fmt.Errorf("default hourly limit must be positive, got %d", cfg.Alerting.DefaultHourlyLimit)
	}
	for channel, limit := range cfg.Alerting.ChannelHourlyLimits {
		if limit <= 0 {
			return fmt.Errorf("hourly limit for channel %q must be positive, got %d", channel, limit)
		}
	}
	if cfg.Proximity.CooldownHours < 0 {
		return fmt.Errorf("proximity cooldown must not be negative, got %d", cfg.Proximity.CooldownHours)
	}
	return nil
}
