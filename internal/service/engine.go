// Package service exposes the engine's operations over the model, resolver,
// assembler and settler.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/parlay"
	"github.com/yourusername/clever-parlay/internal/probability"
	"github.com/yourusername/clever-parlay/internal/settlement"
)

// CandidateSource resolves candidate legs.
type CandidateSource interface {
	GetCandidateLegs(ctx context.Context, q candidates.Query) ([]models.CandidateLeg, error)
}

// BundleBuilder assembles wager bundles.
type BundleBuilder interface {
	Build(ctx context.Context, req parlay.Request) (*models.WagerBundle, error)
	BuildTiers(ctx context.Context, sports []models.Sport, includeProps bool) (*parlay.TierSet, error)
}

// SettlementRunner drives legs and bundles to terminal status.
type SettlementRunner interface {
	SettleMatchup(ctx context.Context, matchupID uuid.UUID) (int, error)
	MarkMatchupLive(ctx context.Context, matchupID uuid.UUID) (int, error)
	Sweep(ctx context.Context) (settlement.SweepResult, error)
}

// BundleStore persists assembled bundles.
type BundleStore interface {
	SaveWagerBundle(ctx context.Context, bundle *models.WagerBundle) error
}

// MatchupStore records live scores and finds matchups left to settle.
type MatchupStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Matchup, error)
	UpdateScore(ctx context.Context, id uuid.UUID, homeScore, awayScore *int, status models.MatchupStatus) error
	GetUnsettledFinished(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

// CandidateRequest selects candidate legs for one sport.
type CandidateRequest struct {
	Sport         models.Sport `json:"sport" validate:"required,sport"`
	MinConfidence float64      `json:"min_confidence" validate:"gte=0,lte=100"`
	MaxLegs       int          `json:"max_legs" validate:"gte=1,lte=500"`
	Period        *int         `json:"period,omitempty" validate:"omitempty,gte=1"`
	IncludeProps  bool         `json:"include_props"`
}

// BundleRequest describes a bundle to build and persist.
type BundleRequest struct {
	LegCount            int                `json:"leg_count"`
	Sports              []models.Sport     `json:"sports" validate:"required,min=1,dive,sport"`
	RiskProfile         models.RiskProfile `json:"risk_profile"`
	BalanceAcrossSports bool               `json:"balance_across_sports"`
	IncludeProps        bool               `json:"include_props"`
}

// Config holds engine settings.
type Config struct {
	// PersistTiers saves every successfully built tier bundle.
	PersistTiers bool
	// PollLimit caps the matchups settled by one poll.
	PollLimit int
}

// DefaultConfig returns production engine settings.
func DefaultConfig() Config {
	return Config{PersistTiers: true, PollLimit: 500}
}

// Engine is the entry point for every exposed operation.
type Engine struct {
	model     *probability.Model
	resolver  CandidateSource
	assembler BundleBuilder
	settler   SettlementRunner
	bundles   BundleStore
	matchups  MatchupStore
	validate  *validator.Validate
	cfg       Config
	logger    *logrus.Entry
}

// NewEngine creates a new engine.
func NewEngine(
	model *probability.Model,
	resolver CandidateSource,
	assembler BundleBuilder,
	settler SettlementRunner,
	bundles BundleStore,
	matchups MatchupStore,
	cfg Config,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		model:     model,
		resolver:  resolver,
		assembler: assembler,
		settler:   settler,
		bundles:   bundles,
		matchups:  matchups,
		validate:  newValidator(),
		cfg:       cfg,
		logger:    logger.WithField("component", "engine"),
	}
}

// ComputeWinProbability runs the probability model for one matchup.
func (e *Engine) ComputeWinProbability(home, away string, sport models.Sport, mctx *probability.MatchupContext, snap *probability.MarketSnapshot) probability.Result {
	return e.model.Compute(home, away, sport, mctx, snap)
}

// GetCandidateLegs returns confidence-ranked legs for one sport.
func (e *Engine) GetCandidateLegs(ctx context.Context, req CandidateRequest) ([]models.CandidateLeg, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return e.resolver.GetCandidateLegs(ctx, candidates.Query{
		Sport:         req.Sport,
		MinConfidence: req.MinConfidence,
		MaxLegs:       req.MaxLegs,
		Period:        req.Period,
		IncludeProps:  req.IncludeProps,
	})
}

// BuildWagerBundle assembles a bundle of exactly LegCount legs and persists it.
// Leg count and risk profile are checked by the assembler so callers get its
// typed errors.
func (e *Engine) BuildWagerBundle(ctx context.Context, req BundleRequest) (*models.WagerBundle, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	bundle, err := e.assembler.Build(ctx, parlay.Request{
		LegCount:            req.LegCount,
		Sports:              req.Sports,
		RiskProfile:         req.RiskProfile,
		BalanceAcrossSports: req.BalanceAcrossSports,
		IncludeProps:        req.IncludeProps,
	})
	if err != nil {
		return nil, err
	}

	if err := e.save(ctx, bundle); err != nil {
		return nil, err
	}

	return bundle, nil
}

// BuildTiers builds every configured tier from one set of pools. Built tiers
// are persisted when PersistTiers is set; a tier whose save fails carries the
// error instead of its bundle.
func (e *Engine) BuildTiers(ctx context.Context, sports []models.Sport, includeProps bool) (*parlay.TierSet, error) {
	set, err := e.assembler.BuildTiers(ctx, sports, includeProps)
	if err != nil {
		return nil, err
	}
	if !e.cfg.PersistTiers {
		return set, nil
	}

	for i := range set.Tiers {
		tier := &set.Tiers[i]
		if tier.Bundle == nil {
			continue
		}
		if err := e.save(ctx, tier.Bundle); err != nil {
			tier.Bundle = nil
			tier.Err = err
		}
	}

	return set, nil
}

// SettleMatchup grades every open leg on a finished matchup.
func (e *Engine) SettleMatchup(ctx context.Context, matchupID uuid.UUID) (int, error) {
	return e.settler.SettleMatchup(ctx, matchupID)
}

// MarkMatchupLive moves pending legs on a started matchup to LIVE.
func (e *Engine) MarkMatchupLive(ctx context.Context, matchupID uuid.UUID) (int, error) {
	return e.settler.MarkMatchupLive(ctx, matchupID)
}

// SweepBundleStatuses re-derives every open bundle's status.
func (e *Engine) SweepBundleStatuses(ctx context.Context) (settlement.SweepResult, error) {
	return e.settler.Sweep(ctx)
}

// SettleFinishedMatchups settles matchups that finished since the given time
// and still have open legs. Every matchup is attempted; failures are joined.
func (e *Engine) SettleFinishedMatchups(ctx context.Context, since time.Time) (int, error) {
	ids, err := e.matchups.GetUnsettledFinished(ctx, since, e.cfg.PollLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list finished matchups: %w", err)
	}

	total := 0
	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		n, err := e.settler.SettleMatchup(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("matchup %s: %w", id, err))
			continue
		}
		total += n
	}

	return total, errors.Join(errs...)
}

func (e *Engine) save(ctx context.Context, bundle *models.WagerBundle) error {
	if err := e.validate.Struct(bundle); err != nil {
		return fmt.Errorf("assembled bundle failed validation: %w", err)
	}
	if err := e.bundles.SaveWagerBundle(ctx, bundle); err != nil {
		return fmt.Errorf("failed to save wager bundle: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"bundle_id":    bundle.ID,
		"risk_profile": bundle.RiskProfile,
		"legs":         len(bundle.Legs),
	}).Info("Wager bundle saved")
	return nil
}
