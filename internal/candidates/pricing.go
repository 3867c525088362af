package candidates

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/oddsmath"
	"github.com/yourusername/clever-parlay/internal/probability"
)

const maxMovement = 10.0

type pricedQuote struct {
	quote *models.QuotedMarket
	price int
}

// selection gathers every parsed snapshot of one priced outcome.
type selection struct {
	key    models.SelectionKey
	quotes []pricedQuote
}

// best returns the highest-paying latest price across sources.
func (s *selection) best() pricedQuote {
	latest := make(map[string]pricedQuote)
	for _, q := range s.quotes {
		cur, ok := latest[q.quote.Source]
		if !ok || q.quote.CapturedAt.After(cur.quote.CapturedAt) {
			latest[q.quote.Source] = q
		}
	}
	var best pricedQuote
	found := false
	for _, q := range latest {
		if !found || q.price > best.price || (q.price == best.price && q.quote.Source < best.quote.Source) {
			best, found = q, true
		}
	}
	return best
}

// movement is the change in implied probability from the earliest to the
// latest snapshot, in points. Positive means the market moved toward the outcome.
func (s *selection) movement() float64 {
	if len(s.quotes) < 2 {
		return 0
	}
	earliest, latest := s.quotes[0], s.quotes[0]
	for _, q := range s.quotes[1:] {
		if q.quote.CapturedAt.Before(earliest.quote.CapturedAt) {
			earliest = q
		}
		if !q.quote.CapturedAt.Before(latest.quote.CapturedAt) {
			latest = q
		}
	}
	first, err1 := oddsmath.AmericanToImplied(earliest.price)
	last, err2 := oddsmath.AmericanToImplied(latest.price)
	if err1 != nil || err2 != nil {
		return 0
	}
	return math.Max(-maxMovement, math.Min(maxMovement, (last-first)*100))
}

// groupSelections parses prices and groups quotes by selection, dropping
// malformed rows. It returns the selections in a stable order and the number
// of rows dropped.
func groupSelections(quotes []*models.QuotedMarket, logger *logrus.Logger) ([]*selection, int) {
	byKey := make(map[models.SelectionKey]*selection)
	var order []models.SelectionKey
	malformed := 0

	for _, q := range quotes {
		price, err := oddsmath.ParseAmerican(q.Price)
		if err != nil {
			malformed++
			metrics.RecordMalformedPrice()
			logger.WithFields(logrus.Fields{
				"matchup_id":  q.MatchupID,
				"market_type": q.MarketType,
				"source":      q.Source,
				"price":       q.Price,
			}).WithError(err).Warn("Dropping malformed price")
			continue
		}
		key := q.Key()
		sel, ok := byKey[key]
		if !ok {
			sel = &selection{key: key}
			byKey[key] = sel
			order = append(order, key)
		}
		sel.quotes = append(sel.quotes, pricedQuote{quote: q, price: price})
	}

	out := make([]*selection, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out, malformed
}

// oppositeKey returns the complementary selection of a two-way market.
func oppositeKey(k models.SelectionKey) models.SelectionKey {
	opp := k
	opp.Outcome = k.Outcome.Opposite()
	if k.MarketType == models.MarketSpread && k.HasPoint {
		opp.Point = -k.Point
	}
	return opp
}

// moneylineSnapshot builds the model's market input from moneyline selections.
func moneylineSnapshot(sels []*selection) *probability.MarketSnapshot {
	snap := &probability.MarketSnapshot{}
	for _, sel := range sels {
		if sel.key.MarketType != models.MarketMoneyline {
			continue
		}
		best := sel.best()
		quote := probability.PriceQuote{Source: best.quote.Source, Price: best.price}
		switch sel.key.Outcome {
		case models.OutcomeHome:
			snap.Home = append(snap.Home, quote)
		case models.OutcomeAway:
			snap.Away = append(snap.Away, quote)
		}
	}
	if len(snap.Home) == 0 && len(snap.Away) == 0 {
		return nil
	}
	return snap
}

// rankLegs orders legs by confidence, then edge, then a stable identity.
func rankLegs(legs []models.CandidateLeg) {
	sort.SliceStable(legs, func(i, j int) bool {
		if legs[i].Confidence != legs[j].Confidence {
			return legs[i].Confidence > legs[j].Confidence
		}
		if legs[i].Edge != legs[j].Edge {
			return legs[i].Edge > legs[j].Edge
		}
		if legs[i].MatchupID != legs[j].MatchupID {
			return legs[i].MatchupID.String() < legs[j].MatchupID.String()
		}
		return legs[i].Label() < legs[j].Label()
	})
}
