// Package config provides configuration management for the parlay engine.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/clever-parlay/internal/events"
	"github.com/yourusername/clever-parlay/internal/parlay"
	"github.com/yourusername/clever-parlay/internal/probability"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig           `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig      `mapstructure:"database" validate:"required"`
	Redis       RedisConfig         `mapstructure:"redis"`
	Kafka       events.KafkaConfig  `mapstructure:"kafka"`
	StatsAPI    StatsAPIConfig      `mapstructure:"stats_api" validate:"required"`
	ScoreStream ScoreStreamConfig   `mapstructure:"score_stream"`
	Model       probability.Weights `mapstructure:"model"`
	Resolver    ResolverConfig      `mapstructure:"resolver" validate:"required"`
	Assembly    AssemblyConfig      `mapstructure:"assembly" validate:"required"`
	Settlement  SettlementConfig    `mapstructure:"settlement" validate:"required"`
	Metrics     MetricsConfig       `mapstructure:"metrics" validate:"required"`
	Features    FeaturesConfig      `mapstructure:"features"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// RedisConfig represents the shared candidate cache
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db" validate:"gte=0"`
	PoolSize     int    `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int    `mapstructure:"min_idle_conns" validate:"gte=0"`
	Prefix       string `mapstructure:"prefix"`
}

// StatsAPIConfig represents the team stats and injuries provider
type StatsAPIConfig struct {
	BaseURL                      string  `mapstructure:"base_url" validate:"required,url"`
	APIKey                       string  `mapstructure:"api_key"`
	TimeoutSeconds               int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts                int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond            float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                        int     `mapstructure:"burst" validate:"required,gt=0"`
	CircuitBreakerThreshold      int     `mapstructure:"circuit_breaker_threshold" validate:"required,gt=0"`
	CircuitBreakerTimeoutSeconds int     `mapstructure:"circuit_breaker_timeout_seconds" validate:"required,gt=0"`
}

// ScoreStreamConfig represents the live score websocket feed
type ScoreStreamConfig struct {
	URL              string   `mapstructure:"url"`
	ReconnectSeconds int      `mapstructure:"reconnect_seconds" validate:"gte=0"`
	Sports           []string `mapstructure:"sports" validate:"dive,sport"`
}

// ResolverConfig bounds candidate resolution
type ResolverConfig struct {
	WindowDays           int               `mapstructure:"window_days" validate:"required,gt=0"`
	MaxWindowDays        int               `mapstructure:"max_window_days" validate:"required,gt=0"`
	MaxRows              int               `mapstructure:"max_rows" validate:"required,gt=0"`
	MaxMarketsPerMatchup int               `mapstructure:"max_markets_per_matchup" validate:"required,gt=0"`
	MaxPropsPerMatchup   int               `mapstructure:"max_props_per_matchup" validate:"gte=0"`
	MaxCollected         int               `mapstructure:"max_collected" validate:"required,gt=0"`
	ContextConcurrency   int               `mapstructure:"context_concurrency" validate:"required,gt=0"`
	CacheTTLSeconds      int               `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize         int               `mapstructure:"cache_max_size" validate:"gte=0"`
	SeasonStarts         map[string]string `mapstructure:"season_starts" validate:"dive,keys,sport,endkeys,datetime=2006-01-02"`
}

// AssemblyConfig represents risk policies, selection tuning and tiers
type AssemblyConfig struct {
	TimeoutSeconds int                  `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	Policies       parlay.Policies      `mapstructure:"policies"`
	Selection      parlay.SelectOptions `mapstructure:"selection"`
	Tiers          []parlay.TierSpec    `mapstructure:"tiers" validate:"required,min=1,dive"`
}

// SettlementConfig represents settlement jobs
type SettlementConfig struct {
	SweepSchedule     string `mapstructure:"sweep_schedule" validate:"required,cron"`
	PollSchedule      string `mapstructure:"poll_schedule" validate:"required,cron"`
	SweepBatchSize    int    `mapstructure:"sweep_batch_size" validate:"required,gt=0"`
	PollLookbackHours int    `mapstructure:"poll_lookback_hours" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path     string `mapstructure:"path" validate:"required"`
	GRPCPort int    `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
}

// FeaturesConfig represents feature flags
type FeaturesConfig struct {
	RedisCacheEnabled  bool `mapstructure:"redis_cache_enabled"`
	KafkaEventsEnabled bool `mapstructure:"kafka_events_enabled"`
	ScoreStreamEnabled bool `mapstructure:"score_stream_enabled"`
	PlayerPropsEnabled bool `mapstructure:"player_props_enabled"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// StatsTimeout returns the stats API request timeout
func (c *Config) StatsTimeout() time.Duration {
	return time.Duration(c.StatsAPI.TimeoutSeconds) * time.Second
}
