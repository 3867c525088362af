package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "CLEVER_PARLAY"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ReloadFromEnv reloads the configuration from CLEVER_PARLAY_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}

	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// CLEVER_PARLAY_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "clever-parlay")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle_connections", 5)

	v.SetDefault("redis.prefix", "clever-parlay")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("kafka.topic", "bundle-status")
	v.SetDefault("kafka.required_acks", -1)
	v.SetDefault("kafka.compression", "gzip")

	v.SetDefault("stats_api.timeout_seconds", 10)
	v.SetDefault("stats_api.retry_attempts", 3)
	v.SetDefault("stats_api.requests_per_second", 5.0)
	v.SetDefault("stats_api.burst", 10)
	v.SetDefault("stats_api.circuit_breaker_threshold", 5)
	v.SetDefault("stats_api.circuit_breaker_timeout_seconds", 30)

	v.SetDefault("score_stream.reconnect_seconds", 5)

	v.SetDefault("model.market", 0.5)
	v.SetDefault("model.stats", 0.3)
	v.SetDefault("model.situational", 0.2)
	v.SetDefault("model.direct", 0.3)

	v.SetDefault("resolver.window_days", 7)
	v.SetDefault("resolver.max_window_days", 28)
	v.SetDefault("resolver.max_rows", 5000)
	v.SetDefault("resolver.max_markets_per_matchup", 24)
	v.SetDefault("resolver.max_props_per_matchup", 40)
	v.SetDefault("resolver.max_collected", 400)
	v.SetDefault("resolver.context_concurrency", 8)
	v.SetDefault("resolver.cache_ttl_seconds", 45)
	v.SetDefault("resolver.cache_max_size", 500)

	v.SetDefault("assembly.timeout_seconds", 90)
	v.SetDefault("assembly.policies.conservative.min_confidence", 70)
	v.SetDefault("assembly.policies.conservative.min_edge_points", 2)
	v.SetDefault("assembly.policies.balanced.min_confidence", 55)
	v.SetDefault("assembly.policies.balanced.min_edge_points", 1)
	v.SetDefault("assembly.policies.degen.min_confidence", 40)
	v.SetDefault("assembly.policies.degen.min_edge_points", 0)
	v.SetDefault("assembly.policies.confidence_step", 5)
	v.SetDefault("assembly.policies.edge_step", 0.5)
	v.SetDefault("assembly.selection.matchup_cap", 2)
	v.SetDefault("assembly.selection.correlation_penalty", 0.05)
	v.SetDefault("assembly.selection.exact_search_max_pool", 36)
	v.SetDefault("assembly.selection.exact_node_budget", 250000)
	v.SetDefault("assembly.tiers", []map[string]interface{}{
		{"name": "safe", "profile": "safe", "min_legs": 3, "max_legs": 6, "default_legs": 4},
		{"name": "balanced", "profile": "balanced", "min_legs": 7, "max_legs": 12, "default_legs": 8},
		{"name": "degen", "profile": "degen", "min_legs": 13, "max_legs": 20, "default_legs": 14},
	})

	v.SetDefault("settlement.sweep_schedule", "*/5 * * * *")
	v.SetDefault("settlement.poll_schedule", "* * * * *")
	v.SetDefault("settlement.sweep_batch_size", 1000)
	v.SetDefault("settlement.poll_lookback_hours", 36)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
