package oddsmath

import "fmt"

// RemoveVig normalizes two complementary implied probabilities so they sum to 1
// while keeping their ratio. Inputs must be positive; a book without margin
// (sum <= 1) is normalized the same way.
func RemoveVig(p1, p2 float64) (fair1, fair2 float64, err error) {
	if p1 <= 0 || p2 <= 0 {
		return 0, 0, fmt.Errorf("probabilities must be positive")
	}
	total := p1 + p2
	return p1 / total, p2 / total, nil
}

// RemoveVigN is the n-way form of RemoveVig, used for three-way soccer markets.
func RemoveVigN(probabilities []float64) ([]float64, error) {
	if len(probabilities) < 2 {
		return nil, fmt.Errorf("need at least 2 outcomes")
	}
	total := 0.0
	for _, p := range probabilities {
		if p <= 0 {
			return nil, fmt.Errorf("all probabilities must be positive")
		}
		total += p
	}
	fair := make([]float64, len(probabilities))
	for i, p := range probabilities {
		fair[i] = p / total
	}
	return fair, nil
}

// Overround returns the bookmaker margin of a market as a fraction (0.0476 for -110/-110).
func Overround(probabilities ...float64) float64 {
	total := 0.0
	for _, p := range probabilities {
		total += p
	}
	if total <= 1 {
		return 0
	}
	return total - 1
}

// FairPairFromAmerican strips the vig from a two-way American-priced market.
func FairPairFromAmerican(price1, price2 int) (float64, float64, error) {
	p1, err := AmericanToImplied(price1)
	if err != nil {
		return 0, 0, err
	}
	p2, err := AmericanToImplied(price2)
	if err != nil {
		return 0, 0, err
	}
	return RemoveVig(p1, p2)
}
