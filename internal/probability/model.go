// Package probability estimates win probabilities by blending market prices
// with team statistics and situational factors.
package probability

import (
	"fmt"
	"math"

	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/oddsmath"
)

const (
	// MinProbability and MaxProbability bound every model output.
	MinProbability = 0.08
	MaxProbability = 0.92

	maxStatsAdjustment       = 0.15
	maxSituationalAdjustment = 0.10
)

// Weights controls how the three signals are blended.
type Weights struct {
	Market      float64 `mapstructure:"market" validate:"gte=0,lte=1"`
	Stats       float64 `mapstructure:"stats" validate:"gte=0,lte=1"`
	Situational float64 `mapstructure:"situational" validate:"gte=0,lte=1"`
	// Direct passes stats and situational terms straight through on top of
	// their weighted share.
	Direct float64 `mapstructure:"direct" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the production blend.
func DefaultWeights() Weights {
	return Weights{Market: 0.50, Stats: 0.30, Situational: 0.20, Direct: 0.30}
}

// Result is the model's estimate for one matchup.
type Result struct {
	HomeProb   float64  `json:"home_prob"`
	AwayProb   float64  `json:"away_prob"`
	Confidence float64  `json:"confidence"`
	Method     string   `json:"method"`
	Warnings   []string `json:"warnings,omitempty"`

	// MarketHomeFair is the vig-free home probability, 0.5 when no prices exist.
	MarketHomeFair float64 `json:"market_home_fair"`
	HasMarket      bool    `json:"has_market"`
	Stats          float64 `json:"stats_adjustment"`
	Situational    float64 `json:"situational_adjustment"`
	DataQuality    float64 `json:"data_quality"`
	EdgeScore      float64 `json:"edge_score"`
}

// EdgePoints is the model's disagreement with the market in percentage points.
func (r *Result) EdgePoints() float64 {
	if !r.HasMarket {
		return 0
	}
	return math.Abs(r.HomeProb-r.MarketHomeFair) * 100
}

// Model is the win-probability estimator. It is stateless and safe for
// concurrent use.
type Model struct {
	weights Weights
}

// NewModel creates a model with the given weights.
func NewModel(weights Weights) *Model {
	return &Model{weights: weights}
}

// Weights returns the blend in use.
func (m *Model) Weights() Weights {
	return m.weights
}

// Compute estimates the home and away win probabilities. It never fails:
// missing inputs degrade to neutral and are reported in Result.Warnings.
func (m *Model) Compute(home, away string, sport models.Sport, mctx *MatchupContext, snap *MarketSnapshot) Result {
	var warnings []string
	if mctx == nil {
		mctx = &MatchupContext{}
		warnings = append(warnings, dataIncomplete("no matchup context for %s @ %s", away, home))
	}

	marketFair, hasMarket, marketWarnings := marketProbability(snap)
	warnings = append(warnings, marketWarnings...)

	hasStats := mctx.HomeStats != nil && mctx.AwayStats != nil
	stats := 0.0
	if hasStats {
		stats = statsAdjustment(sport, mctx.HomeStats, mctx.AwayStats)
	} else {
		warnings = append(warnings, dataIncomplete("team statistics missing"))
	}

	situational, sitWarnings := situationalAdjustment(sport, mctx)
	warnings = append(warnings, sitWarnings...)

	w := m.weights
	homeProb := 0.5 +
		w.Market*(marketFair-0.5) +
		w.Stats*stats +
		w.Situational*situational +
		w.Direct*(stats+situational)
	homeProb = clamp(homeProb, MinProbability, MaxProbability)

	res := Result{
		HomeProb:       homeProb,
		AwayProb:       1 - homeProb,
		Method:         method(hasMarket, hasStats),
		Warnings:       warnings,
		MarketHomeFair: marketFair,
		HasMarket:      hasMarket,
		Stats:          stats,
		Situational:    situational,
	}
	res.DataQuality = dataQuality(hasMarket, mctx)
	if hasMarket {
		res.EdgeScore = edgeScore(res.EdgePoints())
	}
	res.Confidence = clamp(res.DataQuality+res.EdgeScore, 0, 100)
	return res
}

func marketProbability(snap *MarketSnapshot) (float64, bool, []string) {
	if snap == nil {
		return 0.5, false, []string{dataIncomplete("no market prices")}
	}
	homePrice, okHome := snap.BestHome()
	awayPrice, okAway := snap.BestAway()

	switch {
	case okHome && okAway:
		fairHome, _, err := oddsmath.FairPairFromAmerican(homePrice, awayPrice)
		if err != nil {
			return 0.5, false, []string{dataIncomplete("moneyline prices unusable: %v", err)}
		}
		return fairHome, true, nil
	case okHome:
		p, _ := oddsmath.AmericanToImplied(homePrice)
		return p, true, []string{dataIncomplete("away moneyline missing; using home implied probability")}
	case okAway:
		p, _ := oddsmath.AmericanToImplied(awayPrice)
		return 1 - p, true, []string{dataIncomplete("home moneyline missing; using away implied probability")}
	}
	return 0.5, false, []string{dataIncomplete("no market prices")}
}

func method(hasMarket, hasStats bool) string {
	switch {
	case hasMarket && hasStats:
		return models.MethodOddsAndStats
	case hasMarket:
		return models.MethodOddsOnly
	case hasStats:
		return models.MethodStatsOnly
	}
	return models.MethodMinimalData
}

// dataIncomplete formats a DataIncompleteWarning entry.
func dataIncomplete(format string, args ...interface{}) string {
	return "data incomplete: " + fmt.Sprintf(format, args...)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
