package probability

import "math"

// Data quality points per available input. The maximum is 50.
const (
	qualityPrice    = 15
	qualityStats    = 8
	qualityWeather  = 4
	qualityInjuries = 5
	qualityRest     = 5
)

func dataQuality(hasMarket bool, mctx *MatchupContext) float64 {
	q := 0.0
	if hasMarket {
		q += qualityPrice
	}
	if mctx.HomeStats != nil {
		q += qualityStats
	}
	if mctx.AwayStats != nil {
		q += qualityStats
	}
	if mctx.Weather != nil || !mctx.Outdoor {
		q += qualityWeather
	}
	if mctx.HomeInjuries != nil {
		q += qualityInjuries
	}
	if mctx.AwayInjuries != nil {
		q += qualityInjuries
	}
	if mctx.HomeRestDays != nil && mctx.AwayRestDays != nil {
		q += qualityRest
	}
	return q
}

// edgeScore rises with disagreement up to 10 points, then decays to a floor of 10.
func edgeScore(points float64) float64 {
	if points <= 10 {
		return 5 * points
	}
	return math.Max(10, 50-3*(points-10))
}
