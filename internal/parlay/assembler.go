// Package parlay selects non-conflicting candidate legs into wager bundles.
package parlay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-parlay/internal/cache"
	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/logger"
	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/models"
)

// CandidateProvider supplies candidate pools per sport.
type CandidateProvider interface {
	Resolve(ctx context.Context, q candidates.Query) (*candidates.Resolution, error)
}

// Config holds assembly settings.
type Config struct {
	Policies Policies
	Select   SelectOptions
	Timeout  time.Duration
	Tiers    []TierSpec
}

// DefaultConfig returns production assembly settings.
func DefaultConfig() Config {
	return Config{
		Policies: DefaultPolicies(),
		Select:   DefaultSelectOptions(),
		Timeout:  90 * time.Second,
		Tiers:    DefaultTiers(),
	}
}

// Request describes the bundle to build.
type Request struct {
	LegCount            int
	Sports              []models.Sport
	RiskProfile         models.RiskProfile
	BalanceAcrossSports bool
	IncludeProps        bool
	Period              *int
}

// fillFunc selects exactly n legs under a policy or reports why it could not.
type fillFunc func(ctx context.Context, policy Policy, n int) ([]models.CandidateLeg, error)

// Assembler builds wager bundles from resolved candidate pools.
type Assembler struct {
	provider CandidateProvider
	cfg      Config
	clock    cache.Clock
	logger   *logger.AssemblyLogger
}

// NewAssembler creates a new assembler.
func NewAssembler(provider CandidateProvider, cfg Config, clock cache.Clock, log *logrus.Logger) *Assembler {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Assembler{
		provider: provider,
		cfg:      cfg,
		clock:    clock,
		logger:   logger.NewAssemblyLogger(log),
	}
}

// Build assembles a bundle of exactly req.LegCount legs.
func (a *Assembler) Build(ctx context.Context, req Request) (*models.WagerBundle, error) {
	start := time.Now()

	if err := ValidateLegCount(req.LegCount); err != nil {
		return nil, err
	}
	policy, err := a.cfg.Policies.For(req.RiskProfile)
	if err != nil {
		return nil, err
	}
	sports := uniqueSports(req.Sports)
	if len(sports) == 0 {
		return nil, ErrNoSports
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	pools, err := a.fetchPools(ctx, sports, req.IncludeProps, req.Period)
	if err != nil {
		return nil, a.fail(req.RiskProfile, req.LegCount, a.timeoutErr(ctx, err))
	}

	legs, err := a.relax(ctx, a.filler(sports, pools, req), policy, req.RiskProfile, req.LegCount, poolSize(pools))
	if err != nil {
		return nil, a.fail(req.RiskProfile, req.LegCount, err)
	}

	bundle, err := a.newBundle(req.RiskProfile, sports, legs)
	if err != nil {
		return nil, a.fail(req.RiskProfile, req.LegCount, err)
	}

	elapsed := time.Since(start)
	metrics.RecordBundleBuilt(string(req.RiskProfile), elapsed.Seconds())
	a.logger.LogBundleBuilt(bundle.ID.String(), string(bundle.RiskProfile), len(bundle.Legs),
		bundle.CombinedProbability, bundle.CombinedDecimalOdds, bundle.CombinedEV, float64(elapsed.Milliseconds()))
	return bundle, nil
}

func (a *Assembler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

// filler picks the pooled or balanced strategy for a request.
func (a *Assembler) filler(sports []models.Sport, pools map[models.Sport][]models.CandidateLeg, req Request) fillFunc {
	if req.BalanceAcrossSports && len(sports) > 1 {
		b := NewBalancer(sports, pools, a.cfg.Select, a.refetch(req.IncludeProps), a.logger)
		return b.Fill
	}

	var all []models.CandidateLeg
	for _, s := range sports {
		all = append(all, pools[s]...)
	}
	ranked := rank(all)
	return func(ctx context.Context, policy Policy, n int) ([]models.CandidateLeg, error) {
		chosen := a.cfg.Select.selectScored(nil, admitted(ranked, policy), n)
		if len(chosen) < n {
			return toLegs(chosen), NewInsufficientCandidatesError(n, len(chosen), len(ranked), "")
		}
		return toLegs(chosen), nil
	}
}

// relax runs fill under the policy and then each relaxed step until n legs
// are found.
func (a *Assembler) relax(ctx context.Context, fill fillFunc, policy Policy, profile models.RiskProfile, n, pool int) ([]models.CandidateLeg, error) {
	found := 0
	var lastErr error
	for i, step := range a.cfg.Policies.Relaxations(policy) {
		if err := ctx.Err(); err != nil {
			return nil, a.timeoutErr(ctx, err)
		}
		if i > 0 {
			a.logger.LogRelaxation(string(profile), step.MinConfidence, step.MinEdgePoints, found, n)
		}

		legs, err := fill(ctx, step, n)
		if err == nil && len(legs) == n {
			return legs, nil
		}
		if err != nil && !errors.Is(err, ErrInsufficientCandidates) {
			return nil, a.timeoutErr(ctx, err)
		}
		lastErr = err
		if len(legs) > found {
			found = len(legs)
		}
	}

	out := NewInsufficientCandidatesError(n, found, pool, profile)
	var short *InsufficientCandidatesError
	if errors.As(lastErr, &short) {
		if short.PoolSize > out.PoolSize {
			out.PoolSize = short.PoolSize
		}
		out.Reason = short.Reason
	}
	return nil, out
}

func (a *Assembler) fetchPools(ctx context.Context, sports []models.Sport, includeProps bool, period *int) (map[models.Sport][]models.CandidateLeg, error) {
	pools := make(map[models.Sport][]models.CandidateLeg, len(sports))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, sport := range sports {
		sport := sport
		g.Go(func() error {
			res, err := a.provider.Resolve(gctx, candidates.Query{
				Sport:        sport,
				Period:       period,
				IncludeProps: includeProps,
			})
			if err != nil {
				return fmt.Errorf("failed to resolve %s candidates: %w", sport, err)
			}
			a.logger.LogPoolResolved(string(sport), len(res.Legs), res.Step, res.FromCache)

			mu.Lock()
			pools[sport] = res.Legs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pools, nil
}

func (a *Assembler) refetch(includeProps bool) RefetchFunc {
	return func(ctx context.Context, sport models.Sport, step string) ([]models.CandidateLeg, error) {
		q := candidates.Query{Sport: sport, IncludeProps: includeProps}
		if step == FallbackAnyPeriod {
			q.AnyPeriod = true
		}
		res, err := a.provider.Resolve(ctx, q)
		if err != nil {
			return nil, err
		}
		return res.Legs, nil
	}
}

func (a *Assembler) newBundle(profile models.RiskProfile, sports []models.Sport, legs []models.CandidateLeg) (*models.WagerBundle, error) {
	decimalOdds, err := CombinedDecimalOdds(legs)
	if err != nil {
		return nil, fmt.Errorf("failed to price bundle: %w", err)
	}
	prob := CombinedProbability(legs)
	now := a.clock.Now()

	bundle := &models.WagerBundle{
		ID:                  uuid.New(),
		RiskProfile:         profile,
		Legs:                make([]models.BundleLeg, len(legs)),
		CombinedProbability: prob,
		CombinedDecimalOdds: decimalOdds,
		CombinedEV:          CombinedEV(prob, decimalOdds),
		Status:              models.StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	present := make(map[models.Sport]bool)
	for i := range legs {
		bundle.Legs[i] = models.NewBundleLeg(bundle.ID, i+1, legs[i])
		present[legs[i].Sport] = true
	}
	for _, s := range sports {
		if present[s] {
			bundle.Sports = append(bundle.Sports, s)
		}
	}
	return bundle, nil
}

// timeoutErr maps a deadline on the assembly context to ErrAssemblyTimeout.
func (a *Assembler) timeoutErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrAssemblyTimeout, a.cfg.Timeout)
	}
	return err
}

func (a *Assembler) fail(profile models.RiskProfile, n int, err error) error {
	reason := "error"
	var short *InsufficientCandidatesError
	switch {
	case errors.As(err, &short):
		reason = short.Reason
	case errors.Is(err, ErrAssemblyTimeout):
		reason = "timeout"
	}
	metrics.RecordAssemblyFailure(reason)
	a.logger.LogAssemblyFailed(string(profile), n, err)
	return err
}

func admitted(items []scored, policy Policy) []scored {
	out := make([]scored, 0, len(items))
	for i := range items {
		if policy.Admits(&items[i].leg) {
			out = append(out, items[i])
		}
	}
	return out
}

func uniqueSports(sports []models.Sport) []models.Sport {
	seen := make(map[models.Sport]bool, len(sports))
	out := make([]models.Sport, 0, len(sports))
	for _, s := range sports {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func poolSize(pools map[models.Sport][]models.CandidateLeg) int {
	var all []models.CandidateLeg
	for _, legs := range pools {
		all = append(all, legs...)
	}
	return len(Dedupe(all))
}
