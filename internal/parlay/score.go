package parlay

import (
	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/oddsmath"
)

// Blend weights for the selection score.
const (
	evWeight         = 0.60
	confidenceWeight = 0.25
	edgeWeight       = 0.15
)

// Score is the blended value of a single leg used for ranking.
func Score(leg *models.CandidateLeg) float64 {
	return evWeight*leg.ExpectedValue() + confidenceWeight*leg.Confidence/100 + edgeWeight*leg.Edge
}

// CombinedProbability multiplies the legs' model probabilities.
func CombinedProbability(legs []models.CandidateLeg) float64 {
	p := 1.0
	for i := range legs {
		p *= legs[i].ModelProb
	}
	return p
}

// CombinedDecimalOdds multiplies the legs' decimal prices exactly.
func CombinedDecimalOdds(legs []models.CandidateLeg) (float64, error) {
	prices := make([]int, len(legs))
	for i := range legs {
		prices[i] = legs[i].Price
	}
	d, err := oddsmath.ParlayDecimal(prices)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// CombinedEV is the expected return per unit staked on the whole bundle.
func CombinedEV(probability, decimalOdds float64) float64 {
	return decimalOdds*probability - 1
}
