package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/cache"
	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/config"
	"github.com/yourusername/clever-parlay/internal/database"
	"github.com/yourusername/clever-parlay/internal/datasource"
	"github.com/yourusername/clever-parlay/internal/events"
	"github.com/yourusername/clever-parlay/internal/parlay"
	"github.com/yourusername/clever-parlay/internal/probability"
	"github.com/yourusername/clever-parlay/internal/repository"
	"github.com/yourusername/clever-parlay/internal/service"
	"github.com/yourusername/clever-parlay/internal/settlement"
)

type eventPublisher interface {
	settlement.Publisher
	Close() error
}

// app holds the wired engine and everything that needs closing.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	db        *database.DB
	repos     *repository.Repositories
	engine    *service.Engine
	redis     *redis.Client
	publisher eventPublisher
	stats     *datasource.RateLimitedHTTPClient
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	db, err := database.Initialize(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	a.repos, err = repository.NewRepositories(db)
	if err != nil {
		return nil, err
	}

	store, err := a.candidateCache(ctx)
	if err != nil {
		return nil, err
	}

	a.publisher, err = a.newPublisher()
	if err != nil {
		return nil, err
	}

	a.stats = datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfig{
		Timeout:               cfg.StatsTimeout(),
		MaxRetries:            cfg.StatsAPI.RetryAttempts,
		RetryWaitMin:          200 * time.Millisecond,
		RetryWaitMax:          5 * time.Second,
		RateLimit:             cfg.StatsAPI.RequestsPerSecond,
		Burst:                 cfg.StatsAPI.Burst,
		CircuitBreakerMax:     cfg.StatsAPI.CircuitBreakerThreshold,
		CircuitBreakerTimeout: time.Duration(cfg.StatsAPI.CircuitBreakerTimeoutSeconds) * time.Second,
	}, log)
	stats := datasource.NewStatsClient(a.stats, cfg.StatsAPI.BaseURL, cfg.StatsAPI.APIKey, log)

	resolverCfg, err := cfg.Resolver.CandidatesConfig()
	if err != nil {
		return nil, err
	}

	clock := cache.SystemClock{}
	model := probability.NewModel(cfg.Model)
	resolver := candidates.NewResolver(a.repos.Matchup, a.repos.Market, stats, model, store, clock, resolverCfg, log)
	assembler := parlay.NewAssembler(resolver, cfg.Assembly.ParlayConfig(), clock, log)
	settler := settlement.NewSettler(db, a.repos.Matchup, a.repos.SettlementStore(), a.publisher, clock, cfg.Settlement.SettlerConfig(), log)

	a.engine = service.NewEngine(model, resolver, assembler, settler, a.repos.Bundle, a.repos.Matchup, service.DefaultConfig(), log)

	ok = true
	return a, nil
}

func (a *app) candidateCache(ctx context.Context) (cache.Store, error) {
	if !a.cfg.Features.RedisCacheEnabled {
		return cache.NewMemoryStore(cache.SystemClock{}, a.cfg.Resolver.CacheMaxSize, time.Minute), nil
	}

	store, client, err := cache.NewRedisStore(ctx, a.cfg.Redis.RedisStoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redis = client
	a.log.WithField("addr", a.cfg.Redis.Addr).Info("Using redis candidate cache")
	return store, nil
}

func (a *app) newPublisher() (eventPublisher, error) {
	if !a.cfg.Features.KafkaEventsEnabled {
		return events.NewLogPublisher(a.log), nil
	}
	p, err := events.NewKafkaPublisher(a.cfg.Kafka, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return p, nil
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close event publisher")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis client")
		}
	}
	if a.stats != nil {
		_ = a.stats.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
