package parlay

import (
	"sort"

	"github.com/yourusername/clever-parlay/internal/models"
)

// SelectOptions tunes leg selection.
type SelectOptions struct {
	MatchupCap         int     `mapstructure:"matchup_cap" validate:"gte=1"`
	CorrelationPenalty float64 `mapstructure:"correlation_penalty" validate:"gte=0"`
	ExactSearchMaxPool int     `mapstructure:"exact_search_max_pool" validate:"gte=0"`
	ExactNodeBudget    int     `mapstructure:"exact_node_budget" validate:"gte=0"`
}

// DefaultSelectOptions returns production selection settings.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{
		MatchupCap:         2,
		CorrelationPenalty: 0.05,
		ExactSearchMaxPool: 36,
		ExactNodeBudget:    250000,
	}
}

func (o SelectOptions) matchupCap() int {
	if o.MatchupCap <= 0 {
		return 2
	}
	return o.MatchupCap
}

type scored struct {
	leg   models.CandidateLeg
	key   models.SelectionKey
	score float64
}

// Dedupe keeps the most confident copy of each selection, in first-seen order.
func Dedupe(legs []models.CandidateLeg) []models.CandidateLeg {
	index := make(map[models.SelectionKey]int, len(legs))
	out := make([]models.CandidateLeg, 0, len(legs))
	for _, leg := range legs {
		key := leg.DedupeKey()
		if i, ok := index[key]; ok {
			cur := out[i]
			if leg.Confidence > cur.Confidence || (leg.Confidence == cur.Confidence && leg.Edge > cur.Edge) {
				out[i] = leg
			}
			continue
		}
		index[key] = len(out)
		out = append(out, leg)
	}
	return out
}

// rank dedupes and scores legs, best first.
func rank(legs []models.CandidateLeg) []scored {
	deduped := Dedupe(legs)
	items := make([]scored, len(deduped))
	for i := range deduped {
		items[i] = scored{leg: deduped[i], key: deduped[i].DedupeKey(), score: Score(&deduped[i])}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		if items[i].leg.MatchupID != items[j].leg.MatchupID {
			return items[i].leg.MatchupID.String() < items[j].leg.MatchupID.String()
		}
		return items[i].leg.Label() < items[j].leg.Label()
	})
	return items
}

// admissible reports whether c can join chosen without a hard conflict or
// exceeding the per-matchup cap.
func (o SelectOptions) admissible(c *scored, chosen []scored) bool {
	same := 0
	for i := range chosen {
		if Conflicts(&c.leg, &chosen[i].leg) {
			return false
		}
		if c.leg.MatchupID == chosen[i].leg.MatchupID {
			same++
		}
	}
	return same < o.matchupCap()
}

func (o SelectOptions) penalty(c *scored, chosen []scored) float64 {
	n := 0
	for i := range chosen {
		if Correlated(&c.leg, &chosen[i].leg) {
			n++
		}
	}
	return float64(n) * o.CorrelationPenalty
}

// greedyFill extends chosen toward n legs, each time taking the admissible
// leg with the best penalized score.
func (o SelectOptions) greedyFill(chosen, pool []scored, n int) []scored {
	used := make(map[models.SelectionKey]bool, len(chosen))
	for i := range chosen {
		used[chosen[i].key] = true
	}

	for len(chosen) < n {
		best, bestEff := -1, 0.0
		for i := range pool {
			if used[pool[i].key] || !o.admissible(&pool[i], chosen) {
				continue
			}
			eff := pool[i].score - o.penalty(&pool[i], chosen)
			if best < 0 || eff > bestEff {
				best, bestEff = i, eff
			}
		}
		if best < 0 {
			break
		}
		chosen = append(chosen, pool[best])
		used[pool[best].key] = true
	}
	return chosen
}

// sweep drops the lower-EV member of any conflicting pair until none remain.
func sweep(chosen []scored) []scored {
	for {
		drop := -1
	scan:
		for i := 0; i < len(chosen); i++ {
			for j := i + 1; j < len(chosen); j++ {
				if !Conflicts(&chosen[i].leg, &chosen[j].leg) {
					continue
				}
				drop = j
				if chosen[i].leg.ExpectedValue() < chosen[j].leg.ExpectedValue() {
					drop = i
				}
				break scan
			}
		}
		if drop < 0 {
			return chosen
		}
		chosen = append(chosen[:drop:drop], chosen[drop+1:]...)
	}
}

// objective is the set's total score less the correlation penalty per pair.
func (o SelectOptions) objective(set []scored) float64 {
	total := 0.0
	for i := range set {
		total += set[i].score
		for j := i + 1; j < len(set); j++ {
			if Correlated(&set[i].leg, &set[j].leg) {
				total -= o.CorrelationPenalty
			}
		}
	}
	return total
}

// Select picks up to n non-conflicting legs maximizing the blended score.
// Fewer than n legs are returned only when the pool cannot supply them.
func Select(pool []models.CandidateLeg, n int, opts SelectOptions) []models.CandidateLeg {
	return toLegs(opts.selectScored(nil, rank(pool), n))
}

func (o SelectOptions) selectScored(seed, items []scored, n int) []scored {
	chosen := o.greedyFill(seed, items, n)
	chosen = sweep(chosen)
	chosen = o.greedyFill(chosen, items, n)

	if len(seed) == 0 && o.ExactSearchMaxPool > 0 && len(items) <= o.ExactSearchMaxPool {
		if exact, ok := o.exactSearch(items, n); ok {
			if len(chosen) < n || o.objective(exact) > o.objective(chosen)+1e-12 {
				chosen = exact
			}
		}
	}

	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].score > chosen[j].score })
	return chosen
}

func toLegs(items []scored) []models.CandidateLeg {
	legs := make([]models.CandidateLeg, len(items))
	for i := range items {
		legs[i] = items[i].leg
	}
	return legs
}
