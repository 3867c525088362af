package parlay

import (
	"math"

	"github.com/google/uuid"
)

// exactSearch finds the best exactly-n subset by branch and bound: conflicts
// are graph edges, the matchup cap is a side constraint and correlated pairs
// cost the penalty. items must be sorted by score descending. When the node
// budget runs out the best set found so far is returned.
func (o SelectOptions) exactSearch(items []scored, n int) ([]scored, bool) {
	if n <= 0 || n > len(items) {
		return nil, false
	}

	size := len(items)
	conflict := make([][]bool, size)
	correlated := make([][]bool, size)
	for i := range items {
		conflict[i] = make([]bool, size)
		correlated[i] = make([]bool, size)
		for j := range items {
			if i == j {
				continue
			}
			conflict[i][j] = Conflicts(&items[i].leg, &items[j].leg)
			correlated[i][j] = Correlated(&items[i].leg, &items[j].leg)
		}
	}

	prefix := make([]float64, size+1)
	for i := range items {
		prefix[i+1] = prefix[i] + items[i].score
	}

	budget := o.ExactNodeBudget
	if budget <= 0 {
		budget = 250000
	}
	limit := o.matchupCap()

	var (
		best     = math.Inf(-1)
		bestSet  []int
		current  = make([]int, 0, n)
		perMatch = make(map[uuid.UUID]int)
		nodes    int
	)

	var search func(i int, value float64)
	search = func(i int, value float64) {
		nodes++
		if nodes > budget {
			return
		}
		need := n - len(current)
		if need == 0 {
			if value > best {
				best = value
				bestSet = append(bestSet[:0], current...)
			}
			return
		}
		if size-i < need {
			return
		}
		if value+prefix[i+need]-prefix[i] <= best {
			return
		}

		if ok, penalty := o.fits(i, current, items, conflict, correlated, perMatch, limit); ok {
			id := items[i].leg.MatchupID
			current = append(current, i)
			perMatch[id]++
			search(i+1, value+items[i].score-penalty)
			perMatch[id]--
			current = current[:len(current)-1]
		}
		search(i+1, value)
	}
	search(0, 0)

	if bestSet == nil {
		return nil, false
	}
	out := make([]scored, len(bestSet))
	for k, idx := range bestSet {
		out[k] = items[idx]
	}
	return out, true
}

func (o SelectOptions) fits(i int, current []int, items []scored, conflict, correlated [][]bool, perMatch map[uuid.UUID]int, limit int) (bool, float64) {
	if perMatch[items[i].leg.MatchupID] >= limit {
		return false, 0
	}
	penalty := 0.0
	for _, j := range current {
		if conflict[i][j] {
			return false, 0
		}
		if correlated[i][j] {
			penalty += o.CorrelationPenalty
		}
	}
	return true, penalty
}
