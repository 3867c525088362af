package parlay

import "github.com/yourusername/clever-parlay/internal/models"

// lineTolerance is how close two lines must be to count as the same line.
const lineTolerance = 1.0

// Conflicts reports whether two legs cannot sensibly share a bundle because
// their outcomes are mutually exclusive or near-complementary. It is symmetric.
func Conflicts(a, b *models.CandidateLeg) bool {
	if a.MatchupID != b.MatchupID {
		return false
	}
	if a.MarketType != b.MarketType {
		return crossMarketConflict(a, b) || crossMarketConflict(b, a)
	}

	switch a.MarketType {
	case models.MarketMoneyline:
		return a.Outcome == b.Outcome.Opposite() && isSide(a.Outcome)

	case models.MarketTotal:
		return overUnderConflict(a, b)

	case models.MarketSpread:
		if !isSide(a.Outcome) || !isSide(b.Outcome) {
			return false
		}
		if a.Point == nil || b.Point == nil {
			return a.Outcome != b.Outcome
		}
		pa, pb := *a.Point, *b.Point
		if a.Outcome != b.Outcome {
			// Opposite teams: complements sum to zero, and a sum below zero
			// leaves no margin where both cover.
			return pa+pb <= lineTolerance
		}
		return pa*pb < 0

	case models.MarketPlayerProp:
		if a.PlayerName != b.PlayerName || a.PropKind != b.PropKind {
			return false
		}
		return overUnderConflict(a, b)
	}
	return false
}

// overUnderConflict handles opposite sides of a line-based market. An over at
// or above the under's line (less the tolerance) can never win together.
func overUnderConflict(a, b *models.CandidateLeg) bool {
	if a.Outcome != b.Outcome.Opposite() || isSide(a.Outcome) {
		return false
	}
	over, under := a, b
	if a.Outcome == models.OutcomeUnder {
		over, under = b, a
	}
	if over.Point == nil || under.Point == nil {
		return true
	}
	return *over.Point >= *under.Point-lineTolerance
}

// crossMarketConflict covers a moneyline on one side against the other side
// laying points, which cannot both win.
func crossMarketConflict(ml, spread *models.CandidateLeg) bool {
	if ml.MarketType != models.MarketMoneyline || spread.MarketType != models.MarketSpread {
		return false
	}
	if !isSide(ml.Outcome) || spread.Outcome != ml.Outcome.Opposite() {
		return false
	}
	return spread.Point != nil && *spread.Point < 0
}

// Correlated reports a soft relationship that should lower a pair's combined
// score without excluding it: the same market of one matchup, or a moneyline
// and spread on the same side.
func Correlated(a, b *models.CandidateLeg) bool {
	if a.MatchupID != b.MatchupID {
		return false
	}
	if a.MarketType == b.MarketType {
		return true
	}
	sameSide := a.Outcome == b.Outcome && isSide(a.Outcome)
	mlSpread := (a.MarketType == models.MarketMoneyline && b.MarketType == models.MarketSpread) ||
		(a.MarketType == models.MarketSpread && b.MarketType == models.MarketMoneyline)
	return sameSide && mlSpread
}

func isSide(o models.Outcome) bool {
	return o == models.OutcomeHome || o == models.OutcomeAway
}
