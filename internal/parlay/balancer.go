package parlay

import (
	"context"
	"sort"

	"github.com/yourusername/clever-parlay/internal/logger"
	"github.com/yourusername/clever-parlay/internal/models"
)

// Fallback ladder steps for a sport that cannot meet its target
const (
	FallbackNaturalPeriod = "natural_period"
	FallbackAnyPeriod     = "any_period"
)

var fallbackLadder = []string{FallbackNaturalPeriod, FallbackAnyPeriod}

// RefetchFunc loads a wider candidate pool for one sport.
type RefetchFunc func(ctx context.Context, sport models.Sport, step string) ([]models.CandidateLeg, error)

// Balancer spreads a bundle's legs across several sports.
type Balancer struct {
	sports  []models.Sport
	pools   map[models.Sport][]models.CandidateLeg
	rungs   map[models.Sport]int
	opts    SelectOptions
	refetch RefetchFunc
	logger  *logger.AssemblyLogger
}

// NewBalancer creates a balancer over per-sport pools. refetch may be nil.
func NewBalancer(sports []models.Sport, pools map[models.Sport][]models.CandidateLeg, opts SelectOptions, refetch RefetchFunc, log *logger.AssemblyLogger) *Balancer {
	own := make(map[models.Sport][]models.CandidateLeg, len(pools))
	for s, legs := range pools {
		own[s] = legs
	}
	return &Balancer{
		sports:  sports,
		pools:   own,
		rungs:   make(map[models.Sport]int, len(sports)),
		opts:    opts,
		refetch: refetch,
		logger:  log,
	}
}

// Targets splits n across the sports round-robin. The remainder goes to the
// sports with the deepest pools.
func Targets(sports []models.Sport, depth map[models.Sport]int, n int) map[models.Sport]int {
	targets := make(map[models.Sport]int, len(sports))
	if len(sports) == 0 {
		return targets
	}
	base, rem := n/len(sports), n%len(sports)
	order := append([]models.Sport(nil), sports...)
	sort.SliceStable(order, func(i, j int) bool { return depth[order[i]] > depth[order[j]] })
	for i, s := range order {
		targets[s] = base
		if i < rem {
			targets[s]++
		}
	}
	return targets
}

// Fill selects exactly n legs under policy, or returns what it found with an
// InsufficientCandidatesError.
func (b *Balancer) Fill(ctx context.Context, policy Policy, n int) ([]models.CandidateLeg, error) {
	qualifying := make(map[models.Sport][]scored, len(b.sports))
	depth := make(map[models.Sport]int, len(b.sports))
	for _, s := range b.sports {
		qualifying[s] = admitted(rank(b.pools[s]), policy)
		depth[s] = len(qualifying[s])
	}
	targets := Targets(b.sports, depth, n)

	var chosen []scored
	for _, s := range b.sports {
		want := len(chosen) + targets[s]
		chosen = b.opts.greedyFill(chosen, qualifying[s], want)

		for len(chosen) < want && b.rungs[s] < len(fallbackLadder) {
			step := fallbackLadder[b.rungs[s]]
			b.rungs[s]++
			b.logger.LogSportStarved(string(s), targets[s], targets[s]-(want-len(chosen)), step)
			if !b.widen(ctx, s, step) {
				continue
			}
			qualifying[s] = admitted(rank(b.pools[s]), policy)
			chosen = b.opts.greedyFill(chosen, qualifying[s], want)
		}
	}

	var all []models.CandidateLeg
	for _, s := range b.sports {
		all = append(all, b.pools[s]...)
	}
	pooled := admitted(rank(all), policy)

	chosen = b.opts.greedyFill(chosen, pooled, n)
	chosen = sweep(chosen)
	chosen = b.opts.greedyFill(chosen, pooled, n)
	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].score > chosen[j].score })

	if len(chosen) < n {
		return toLegs(chosen), NewInsufficientCandidatesError(n, len(chosen), len(Dedupe(all)), "")
	}
	return toLegs(chosen), nil
}

// widen merges a refetched pool for one sport. It reports whether anything new arrived.
func (b *Balancer) widen(ctx context.Context, sport models.Sport, step string) bool {
	if b.refetch == nil {
		return false
	}
	legs, err := b.refetch(ctx, sport, step)
	if err != nil {
		b.logger.WithError(err).WithField("sport", sport).Warn("Fallback candidate fetch failed")
		return false
	}
	before := len(Dedupe(b.pools[sport]))
	merged := Dedupe(append(append([]models.CandidateLeg(nil), b.pools[sport]...), legs...))
	b.pools[sport] = merged
	return len(merged) > before
}
