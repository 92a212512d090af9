package config

import "time"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Alerting  AlertingConfig  `mapstructure:"alerting" yaml:"alerting"`
	Proximity ProximityConfig `mapstructure:"proximity" yaml:"proximity"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
}

// CacheConfig points at the shared Valkey/Redis instance backing debounce
// and rate-limit state. An empty Addr runs the engine on the in-process
// fallback only (single-worker development mode).
type CacheConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Password string `mapstructure:"password" yaml:"password"`
}

// DatabaseConfig points at the Postgres instance holding threats,
// itineraries and dispatch records. An empty DSN selects the in-memory
// repositories.
type DatabaseConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

// AlertingConfig carries the suppression knobs consumed by the engine.
type AlertingConfig struct {
	RateLimitWindowSeconds int            `mapstructure:"rate_limit_window_seconds" yaml:"rate_limit_window_seconds"`
	DebounceTTLSeconds     int            `mapstructure:"debounce_ttl_seconds" yaml:"debounce_ttl_seconds"`
	DefaultHourlyLimit     int            `mapstructure:"default_hourly_limit" yaml:"default_hourly_limit"`
	ChannelHourlyLimits    map[string]int `mapstructure:"channel_hourly_limits" yaml:"channel_hourly_limits"`
}

func (c AlertingConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c AlertingConfig) DebounceTTL() time.Duration {
	return time.Duration(c.DebounceTTLSeconds) * time.Second
}

// ProximityConfig controls the two-phase spatial query service.
type ProximityConfig struct {
	CooldownHours        int `mapstructure:"cooldown_hours" yaml:"cooldown_hours"`
	MaxResults           int `mapstructure:"max_results" yaml:"max_results"`
	DefaultLookbackHours int `mapstructure:"default_lookback_hours" yaml:"default_lookback_hours"`
}

func (c ProximityConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

// CORSConfig handles Cross-Origin Resource Sharing for the HTTP surface.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

// HTTPConfig holds limits applied by the API middleware, not by the engine.
type HTTPConfig struct {
	ClientRateLimitPerMinute int `mapstructure:"client_rate_limit_per_minute" yaml:"client_rate_limit_per_minute"`
}
