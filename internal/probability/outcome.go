package probability

import (
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/oddsmath"
)

const (
	spreadShiftShare   = 0.5
	maxTotalNudge      = 0.03
	weatherTotalNudge  = 0.02
	secondaryConfShare = 0.9
)

// OutcomeQuote describes a single priced outcome to evaluate.
type OutcomeQuote struct {
	MarketType models.MarketType
	Outcome    models.Outcome
	Point      *float64
	Price      int
	// OppositePrice is the price of the complementary side when quoted.
	OppositePrice *int
}

// OutcomeEstimate is the model probability and confidence for one outcome.
type OutcomeEstimate struct {
	Probability float64
	Confidence  float64
	Supported   bool
}

// EvaluateOutcome maps a matchup-level result onto one priced outcome.
func (m *Model) EvaluateOutcome(sport models.Sport, res Result, q OutcomeQuote, mctx *MatchupContext) OutcomeEstimate {
	switch q.MarketType {
	case models.MarketMoneyline:
		switch q.Outcome {
		case models.OutcomeHome:
			return OutcomeEstimate{Probability: res.HomeProb, Confidence: res.Confidence, Supported: true}
		case models.OutcomeAway:
			return OutcomeEstimate{Probability: res.AwayProb, Confidence: res.Confidence, Supported: true}
		}

	case models.MarketSpread:
		if q.Outcome != models.OutcomeHome && q.Outcome != models.OutcomeAway {
			break
		}
		fair, ok := fairSide(q)
		if !ok {
			break
		}
		deviation := res.HomeProb - res.MarketHomeFair
		if !res.HasMarket {
			deviation = res.HomeProb - 0.5
		}
		if q.Outcome == models.OutcomeAway {
			deviation = -deviation
		}
		p := clamp(fair+spreadShiftShare*deviation, MinProbability, MaxProbability)
		return OutcomeEstimate{Probability: p, Confidence: res.Confidence, Supported: true}

	case models.MarketTotal:
		if q.Outcome != models.OutcomeOver && q.Outcome != models.OutcomeUnder {
			break
		}
		fair, ok := fairSide(q)
		if !ok {
			break
		}
		nudge := totalNudge(sport, q.Point, mctx)
		if q.Outcome == models.OutcomeUnder {
			nudge = -nudge
		}
		p := clamp(fair+nudge, MinProbability, MaxProbability)
		return OutcomeEstimate{Probability: p, Confidence: res.Confidence * secondaryConfShare, Supported: true}

	case models.MarketPlayerProp:
		if q.Outcome != models.OutcomeOver && q.Outcome != models.OutcomeUnder {
			break
		}
		fair, ok := fairSide(q)
		if !ok {
			break
		}
		p := clamp(fair, MinProbability, MaxProbability)
		return OutcomeEstimate{Probability: p, Confidence: res.Confidence * secondaryConfShare, Supported: true}
	}
	return OutcomeEstimate{}
}

// fairSide returns the vig-free probability of the quoted side, falling back
// to the raw implied probability when the other side is not quoted.
func fairSide(q OutcomeQuote) (float64, bool) {
	implied, err := oddsmath.AmericanToImplied(q.Price)
	if err != nil {
		return 0, false
	}
	if q.OppositePrice == nil {
		return implied, true
	}
	other, err := oddsmath.AmericanToImplied(*q.OppositePrice)
	if err != nil {
		return implied, true
	}
	fair, _, err := oddsmath.RemoveVig(implied, other)
	if err != nil {
		return implied, true
	}
	return fair, true
}

// totalNudge is the over-positive adjustment from projected scoring pace and
// outdoor weather, bounded by maxTotalNudge.
func totalNudge(sport models.Sport, line *float64, mctx *MatchupContext) float64 {
	if mctx == nil {
		return 0
	}
	nudge := 0.0
	if line != nil && mctx.HomeStats != nil && mctx.AwayStats != nil {
		projected := (mctx.HomeStats.PointsFor+mctx.AwayStats.PointsAgainst)/2 +
			(mctx.AwayStats.PointsFor+mctx.HomeStats.PointsAgainst)/2
		nudge += maxTotalNudge * clamp((projected-*line)/scaleFor(sport), -1, 1)
	}
	if mctx.Outdoor && SevereWeather(mctx.Weather) {
		nudge -= weatherTotalNudge
	}
	return clamp(nudge, -maxTotalNudge, maxTotalNudge)
}
