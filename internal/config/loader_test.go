package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Empty(t, cfg.Database.PostgresDSN)

	assert.Equal(t, time.Hour, cfg.Alerting.RateLimitWindow())
	assert.Equal(t, 24*time.Hour, cfg.Alerting.DebounceTTL())
	assert.Equal(t, 5, cfg.Alerting.DefaultHourlyLimit)
	assert.Equal(t, 10, cfg.Alerting.ChannelHourlyLimits["email"])
	assert.Equal(t, 3, cfg.Alerting.ChannelHourlyLimits["sms"])

	assert.Equal(t, 6*time.Hour, cfg.Proximity.Cooldown())
	assert.Equal(t, 50, cfg.Proximity.MaxResults)
	assert.Equal(t, 24, cfg.Proximity.DefaultLookbackHours)
	assert.Equal(t, 1000, cfg.HTTP.ClientRateLimitPerMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIPSENTRY_PORT", "9090")
	t.Setenv("TRIPSENTRY_ALERTING_DEFAULT_HOURLY_LIMIT", "8")
	t.Setenv("TRIPSENTRY_CACHE_ADDR", "valkey.internal:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 8, cfg.Alerting.DefaultHourlyLimit)
	assert.Equal(t, "valkey.internal:6379", cfg.Cache.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("TRIPSENTRY_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port: 8080,
			Alerting: AlertingConfig{
				RateLimitWindowSeconds: 3600,
				DebounceTTLSeconds:     86400,
				DefaultHourlyLimit:     5,
				ChannelHourlyLimits:    map[string]int{"email": 10},
			},
		}
	}

	require.NoError(t, validateConfig(base()))

	cfg := base()
	cfg.Alerting.RateLimitWindowSeconds = 0
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Alerting.ChannelHourlyLimits["email"] = -1
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Proximity.CooldownHours = -1
	assert.Error(t, validateConfig(cfg))
}
