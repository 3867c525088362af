// Package candidates resolves priced, model-evaluated legs for upcoming matchups.
package candidates

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-parlay/internal/cache"
	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/oddsmath"
	"github.com/yourusername/clever-parlay/internal/probability"
)

// Query selects candidate legs for one sport.
type Query struct {
	Sport         models.Sport
	MinConfidence float64
	MaxLegs       int
	// Period restricts to one sub-period (week). When nil the current period
	// is inferred for week-based sports unless AnyPeriod is set.
	Period       *int
	AnyPeriod    bool
	IncludeProps bool
}

// Resolution is a resolver result with bookkeeping for callers that need to
// explain a short pool.
type Resolution struct {
	Legs      []models.CandidateLeg `json:"legs"`
	PoolSize  int                   `json:"pool_size"`
	Malformed int                   `json:"malformed"`
	Window    Window                `json:"window"`
	Period    *int                  `json:"period,omitempty"`
	Step      string                `json:"step"`
	FromCache bool                  `json:"-"`
}

// Widening ladder step names
const (
	StepRequested   = "requested"
	StepDropPeriod  = "drop_period"
	StepDoubleRange = "window_x2"
	StepQuadRange   = "window_x4"
	StepExhausted   = "exhausted"
)

type ladderStep struct {
	name   string
	days   int
	period *int
}

// cachedPool is the evaluated pool stored in the cache, before the caller's
// confidence filter and truncation.
type cachedPool struct {
	Legs      []models.CandidateLeg `json:"legs"`
	Malformed int                   `json:"malformed"`
	Window    Window                `json:"window"`
	Period    *int                  `json:"period,omitempty"`
	Step      string                `json:"step"`
}

// Resolver turns matchups and quotes into ranked candidate legs.
type Resolver struct {
	matchups MatchupSource
	markets  MarketSource
	contexts ContextSource
	model    *probability.Model
	cache    cache.Store
	clock    cache.Clock
	cfg      Config
	logger   *logrus.Logger
}

// NewResolver creates a new resolver. store and contexts may be nil.
func NewResolver(
	matchups MatchupSource,
	markets MarketSource,
	contexts ContextSource,
	model *probability.Model,
	store cache.Store,
	clock cache.Clock,
	cfg Config,
	logger *logrus.Logger,
) *Resolver {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Resolver{
		matchups: matchups,
		markets:  markets,
		contexts: contexts,
		model:    model,
		cache:    store,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Config returns the resolver configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// GetCandidateLegs returns confidence-ranked legs for the query.
func (r *Resolver) GetCandidateLegs(ctx context.Context, q Query) ([]models.CandidateLeg, error) {
	res, err := r.Resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.Legs, nil
}

// Resolve returns ranked legs along with pool statistics.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Resolution, error) {
	start := time.Now()
	now := r.clock.Now()
	period := r.resolvePeriod(q, now)
	key := cacheKey(q.Sport, now, period, q.IncludeProps)

	pool, fromCache, err := r.loadPool(ctx, key, q, period, now)
	if err != nil {
		return nil, err
	}

	legs := make([]models.CandidateLeg, 0, len(pool.Legs))
	for _, leg := range pool.Legs {
		if !marketAllowed(leg.MarketType, q.IncludeProps) {
			continue
		}
		if leg.Confidence < q.MinConfidence {
			continue
		}
		legs = append(legs, leg)
	}
	rankLegs(legs)
	if q.MaxLegs > 0 && len(legs) > q.MaxLegs {
		legs = legs[:q.MaxLegs]
	}

	metrics.RecordCandidateResolution(time.Since(start).Seconds(), len(legs))
	r.logger.WithFields(logrus.Fields{
		"sport":          q.Sport,
		"period":         formatPeriod(pool.Period),
		"step":           pool.Step,
		"pool_size":      len(pool.Legs),
		"returned":       len(legs),
		"malformed":      pool.Malformed,
		"min_confidence": q.MinConfidence,
		"cached":         fromCache,
	}).Debug("Resolved candidate legs")

	return &Resolution{
		Legs:      legs,
		PoolSize:  len(pool.Legs),
		Malformed: pool.Malformed,
		Window:    pool.Window,
		Period:    pool.Period,
		Step:      pool.Step,
		FromCache: fromCache,
	}, nil
}

func (r *Resolver) resolvePeriod(q Query, now time.Time) *int {
	if q.AnyPeriod {
		return nil
	}
	if q.Period != nil {
		p := *q.Period
		return &p
	}
	if week, ok := r.cfg.CurrentPeriod(q.Sport, now); ok {
		return &week
	}
	return nil
}

func (r *Resolver) loadPool(ctx context.Context, key string, q Query, period *int, now time.Time) (*cachedPool, bool, error) {
	if r.cache != nil {
		var pool cachedPool
		err := r.cache.Get(ctx, key, &pool)
		if err == nil {
			return &pool, true, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.WithError(err).WithField("key", key).Warn("Candidate cache read failed")
		}
	}

	pool, err := r.widen(ctx, q, period, now)
	if err != nil {
		return nil, false, err
	}

	if r.cache != nil && r.cfg.CacheTTL > 0 {
		if err := r.cache.Set(ctx, key, pool, r.cfg.CacheTTL); err != nil {
			r.logger.WithError(err).WithField("key", key).Warn("Candidate cache write failed")
		}
	}
	return pool, false, nil
}

// widen walks the ladder until a step yields legs.
func (r *Resolver) widen(ctx context.Context, q Query, period *int, now time.Time) (*cachedPool, error) {
	var last *cachedPool
	for _, step := range r.ladder(period) {
		window := Window{From: now, To: now.Add(time.Duration(step.days) * 24 * time.Hour)}
		pool, err := r.evaluate(ctx, q, window, step.period)
		if err != nil {
			return nil, err
		}
		pool.Step = step.name
		if len(pool.Legs) > 0 {
			if step.name != StepRequested {
				metrics.RecordWindowWidening(step.name)
				r.logger.WithFields(logrus.Fields{
					"sport": q.Sport,
					"step":  step.name,
					"days":  step.days,
				}).Info("Widened candidate search")
			}
			return pool, nil
		}
		last = pool
	}

	metrics.RecordWindowWidening(StepExhausted)
	r.logger.WithField("sport", q.Sport).Warn("No candidate legs after widening")
	if last == nil {
		last = &cachedPool{}
	}
	last.Legs = nil
	last.Step = StepExhausted
	return last, nil
}

func (r *Resolver) ladder(period *int) []ladderStep {
	days := r.cfg.WindowDays
	if days <= 0 {
		days = 7
	}
	bound := func(d int) int {
		if r.cfg.MaxWindowDays > 0 && d > r.cfg.MaxWindowDays {
			return r.cfg.MaxWindowDays
		}
		return d
	}

	steps := []ladderStep{{name: StepRequested, days: bound(days), period: period}}
	if period != nil {
		steps = append(steps, ladderStep{name: StepDropPeriod, days: bound(days)})
	}
	for _, s := range []ladderStep{
		{name: StepDoubleRange, days: bound(days * 2)},
		{name: StepQuadRange, days: bound(days * 4)},
	} {
		prev := steps[len(steps)-1]
		if prev.period == nil && prev.days == s.days {
			continue
		}
		steps = append(steps, s)
	}
	return steps
}

// evaluate fetches and models every outcome for the window.
func (r *Resolver) evaluate(ctx context.Context, q Query, window Window, period *int) (*cachedPool, error) {
	pool := &cachedPool{Window: window, Period: period}

	matchups, err := r.matchups.GetMatchups(ctx, q.Sport, window, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups: %w", err)
	}

	upcoming := make([]*models.Matchup, 0, len(matchups))
	ids := make([]uuid.UUID, 0, len(matchups))
	for _, m := range matchups {
		if !m.IsUpcoming() || !window.Contains(m.ScheduledAt) {
			continue
		}
		upcoming = append(upcoming, m)
		ids = append(ids, m.ID)
	}
	if len(upcoming) == 0 {
		return pool, nil
	}

	quotes, err := r.markets.GetQuotedMarkets(ctx, ids, MarketLimits{
		MaxRows:              r.cfg.MaxRows,
		MaxMarketsPerMatchup: r.cfg.MaxMarketsPerMatchup,
		MaxPropsPerMatchup:   r.cfg.MaxPropsPerMatchup,
		IncludeProps:         q.IncludeProps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get quoted markets: %w", err)
	}
	byMatchup := make(map[uuid.UUID][]*models.QuotedMarket, len(upcoming))
	for _, quote := range quotes {
		byMatchup[quote.MatchupID] = append(byMatchup[quote.MatchupID], quote)
	}

	contexts, err := r.fetchContexts(ctx, upcoming)
	if err != nil {
		return nil, err
	}

	for i, m := range upcoming {
		legs, malformed := r.evaluateMatchup(m, contexts[i], byMatchup[m.ID], q.IncludeProps)
		pool.Legs = append(pool.Legs, legs...)
		pool.Malformed += malformed
	}

	if r.cfg.MaxCollected > 0 && len(pool.Legs) > r.cfg.MaxCollected {
		rankLegs(pool.Legs)
		pool.Legs = pool.Legs[:r.cfg.MaxCollected]
	}
	return pool, nil
}

// fetchContexts loads matchup context concurrently. A failed fetch degrades
// that matchup to no context rather than failing the resolution.
func (r *Resolver) fetchContexts(ctx context.Context, matchups []*models.Matchup) ([]*probability.MatchupContext, error) {
	out := make([]*probability.MatchupContext, len(matchups))
	if r.contexts == nil {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	limit := r.cfg.ContextConcurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for i, m := range matchups {
		i, m := i, m
		g.Go(func() error {
			mctx, err := r.contexts.GetMatchupContext(gctx, m)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.WithError(err).WithField("matchup_id", m.ID).Warn("Matchup context unavailable")
				return nil
			}
			out[i] = mctx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch matchup contexts: %w", err)
	}
	return out, nil
}

func (r *Resolver) evaluateMatchup(m *models.Matchup, mctx *probability.MatchupContext, quotes []*models.QuotedMarket, includeProps bool) ([]models.CandidateLeg, int) {
	sels, malformed := groupSelections(quotes, r.logger)
	if len(sels) == 0 {
		return nil, malformed
	}

	local := probability.MatchupContext{}
	if mctx != nil {
		local = *mctx
	}
	mctx = &local
	mctx.Outdoor = m.Outdoor
	mctx.Divisional = m.Divisional

	result := r.model.Compute(m.HomeTeam, m.AwayTeam, m.Sport, mctx, moneylineSnapshot(sels))

	byKey := make(map[models.SelectionKey]*selection, len(sels))
	for _, sel := range sels {
		byKey[sel.key] = sel
	}

	legs := make([]models.CandidateLeg, 0, len(sels))
	for _, sel := range sels {
		if !marketAllowed(sel.key.MarketType, includeProps) {
			continue
		}
		best := sel.best()
		oq := probability.OutcomeQuote{
			MarketType: sel.key.MarketType,
			Outcome:    sel.key.Outcome,
			Point:      best.quote.Point,
			Price:      best.price,
		}
		if opp, ok := byKey[oppositeKey(sel.key)]; ok {
			p := opp.best().price
			oq.OppositePrice = &p
		}

		est := r.model.EvaluateOutcome(m.Sport, result, oq, mctx)
		if !est.Supported {
			continue
		}
		dec, err := oddsmath.AmericanToDecimal(best.price)
		if err != nil {
			continue
		}
		implied := 1 / dec

		legs = append(legs, models.CandidateLeg{
			MatchupID:     m.ID,
			Sport:         m.Sport,
			HomeTeam:      m.HomeTeam,
			AwayTeam:      m.AwayTeam,
			StartsAt:      m.ScheduledAt,
			Week:          m.Week,
			MarketType:    sel.key.MarketType,
			Outcome:       sel.key.Outcome,
			Point:         best.quote.Point,
			PlayerName:    sel.key.PlayerName,
			PropKind:      sel.key.PropKind,
			Source:        best.quote.Source,
			Price:         best.price,
			DecimalOdds:   dec,
			ModelProb:     est.Probability,
			ImpliedProb:   implied,
			Edge:          est.Probability - implied,
			Confidence:    est.Confidence,
			MovementScore: sel.movement(),
			Method:        result.Method,
		})
	}
	return legs, malformed
}

func marketAllowed(mt models.MarketType, includeProps bool) bool {
	switch mt {
	case models.MarketMoneyline, models.MarketSpread, models.MarketTotal:
		return true
	case models.MarketPlayerProp:
		return includeProps
	}
	return false
}

func cacheKey(sport models.Sport, now time.Time, period *int, props bool) string {
	return fmt.Sprintf("candidates:%s:%s:%s:%t", sport, now.UTC().Format("2006-01-02"), formatPeriod(period), props)
}

func formatPeriod(period *int) string {
	if period == nil {
		return "any"
	}
	return strconv.Itoa(*period)
}
