package config

import (
	"fmt"
	"time"

	"github.com/yourusername/clever-parlay/internal/cache"
	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/parlay"
	"github.com/yourusername/clever-parlay/internal/settlement"
)

// CandidatesConfig converts the resolver section.
func (c ResolverConfig) CandidatesConfig() (candidates.Config, error) {
	out := candidates.Config{
		WindowDays:           c.WindowDays,
		MaxWindowDays:        c.MaxWindowDays,
		MaxRows:              c.MaxRows,
		MaxMarketsPerMatchup: c.MaxMarketsPerMatchup,
		MaxPropsPerMatchup:   c.MaxPropsPerMatchup,
		MaxCollected:         c.MaxCollected,
		ContextConcurrency:   c.ContextConcurrency,
		CacheTTL:             time.Duration(c.CacheTTLSeconds) * time.Second,
		SeasonStarts:         make(map[models.Sport]time.Time, len(c.SeasonStarts)),
	}
	for code, date := range c.SeasonStarts {
		sport, ok := models.ParseSport(code)
		if !ok {
			return out, fmt.Errorf("unknown sport %q in season_starts", code)
		}
		start, err := time.Parse("2006-01-02", date)
		if err != nil {
			return out, fmt.Errorf("invalid season start for %s: %w", sport, err)
		}
		out.SeasonStarts[sport] = start
	}
	return out, nil
}

// ParlayConfig converts the assembly section.
func (c AssemblyConfig) ParlayConfig() parlay.Config {
	return parlay.Config{
		Policies: c.Policies,
		Select:   c.Selection,
		Timeout:  time.Duration(c.TimeoutSeconds) * time.Second,
		Tiers:    c.Tiers,
	}
}

// SettlerConfig converts the settlement section.
func (c SettlementConfig) SettlerConfig() settlement.Config {
	return settlement.Config{SweepBatchSize: c.SweepBatchSize}
}

// RedisStoreConfig converts the redis section.
func (c RedisConfig) RedisStoreConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		Prefix:       c.Prefix,
	}
}

// ScoreStreamSports returns the configured score stream sports.
func (c ScoreStreamConfig) ScoreStreamSports() []models.Sport {
	out := make([]models.Sport, 0, len(c.Sports))
	for _, code := range c.Sports {
		if s, ok := models.ParseSport(code); ok {
			out = append(out, s)
		}
	}
	return out
}
