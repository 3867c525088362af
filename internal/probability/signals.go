package probability

import (
	"math"

	"github.com/yourusername/clever-parlay/internal/models"
)

// Points per game that count as one unit of scoring differential.
var scoringScale = map[models.SportFamily]float64{
	models.FamilyFootball:   10,
	models.FamilyBasketball: 12,
	models.FamilyHockey:     1.5,
	models.FamilyBaseball:   2,
	models.FamilySoccer:     1.2,
}

// Probability added to the home side before any other situational factor.
var homeAdvantage = map[models.SportFamily]float64{
	models.FamilyFootball:   0.025,
	models.FamilyBasketball: 0.030,
	models.FamilyHockey:     0.020,
	models.FamilyBaseball:   0.015,
	models.FamilySoccer:     0.035,
}

var severityWeight = map[string]float64{
	SeverityOut:          1.0,
	SeverityDoubtful:     0.75,
	SeverityQuestionable: 0.4,
	SeverityProbable:     0.1,
}

const (
	winPctCoef     = 0.20
	scoringCoef    = 0.04
	formCoef       = 0.05
	netRatingCoef  = 0.03
	specialTeams   = 0.10
	eraCoef        = 0.01
	xgCoef         = 0.04
	splitsCoef     = 0.03
	restCoef       = 0.01
	maxRestDays    = 3
	travelCoef     = 0.005
	maxTravel      = 0.015
	divisionalDamp = 0.85
	weatherDamp    = 0.9
	injuryCoef     = 0.01
	keyMultiplier  = 2.0
	referencePace  = 100.0
	coldThresholdF = 32
	windThreshold  = 15
	precipitation  = 50
)

func scaleFor(sport models.Sport) float64 {
	if s, ok := scoringScale[sport.Family()]; ok {
		return s
	}
	return 10
}

// statsAdjustment returns the home-positive statistical edge, clamped.
func statsAdjustment(sport models.Sport, home, away *TeamStats) float64 {
	adj := winPctCoef * (home.WinPct() - away.WinPct())
	adj += scoringCoef * (home.Differential() - away.Differential()) / scaleFor(sport)

	if home.RecentForm != nil && away.RecentForm != nil {
		adj += formCoef * (*home.RecentForm - *away.RecentForm)
	}

	switch sport.Family() {
	case models.FamilyBasketball:
		if home.NetRating != nil && away.NetRating != nil {
			pace := 1.0
			if home.Pace != nil && away.Pace != nil {
				pace = (*home.Pace + *away.Pace) / 2 / referencePace
			}
			adj += netRatingCoef * (*home.NetRating - *away.NetRating) * pace / scoringScale[models.FamilyBasketball]
		}
	case models.FamilyHockey:
		if home.PowerPlayPct != nil && home.PenaltyKillPct != nil && away.PowerPlayPct != nil && away.PenaltyKillPct != nil {
			homeST := *home.PowerPlayPct + *home.PenaltyKillPct
			awayST := *away.PowerPlayPct + *away.PenaltyKillPct
			adj += specialTeams * (homeST - awayST) / 100
		}
	case models.FamilyBaseball:
		if home.StarterERA != nil && away.StarterERA != nil {
			adj += eraCoef * (*away.StarterERA - *home.StarterERA)
		}
	case models.FamilySoccer:
		if home.XGFor != nil && home.XGAgainst != nil && away.XGFor != nil && away.XGAgainst != nil {
			homeXG := *home.XGFor - *home.XGAgainst
			awayXG := *away.XGFor - *away.XGAgainst
			adj += xgCoef * (homeXG - awayXG) / scoringScale[models.FamilySoccer]
		}
		if home.HomeForm != nil && away.AwayForm != nil {
			adj += splitsCoef * (*home.HomeForm - *away.AwayForm)
		}
	}

	return clamp(adj, -maxStatsAdjustment, maxStatsAdjustment)
}

// situationalAdjustment returns the home-positive situational edge, clamped.
func situationalAdjustment(sport models.Sport, mctx *MatchupContext) (float64, []string) {
	var warnings []string

	adj := homeAdvantage[sport.Family()]

	if mctx.HomeRestDays != nil && mctx.AwayRestDays != nil {
		diff := float64(*mctx.HomeRestDays - *mctx.AwayRestDays)
		adj += restCoef * clamp(diff, -maxRestDays, maxRestDays)
	} else {
		warnings = append(warnings, dataIncomplete("rest days unknown"))
	}

	if mctx.AwayTravelMiles != nil {
		adj += math.Min(maxTravel, travelCoef*(*mctx.AwayTravelMiles/1000))
	}

	if mctx.Divisional {
		adj *= divisionalDamp
	}

	if mctx.Outdoor {
		if mctx.Weather == nil {
			warnings = append(warnings, dataIncomplete("weather unknown for outdoor venue"))
		} else {
			adj *= weatherFactor(mctx.Weather)
		}
	}

	if mctx.HomeInjuries == nil || mctx.AwayInjuries == nil {
		warnings = append(warnings, dataIncomplete("injury report missing"))
	}
	adj -= injuryCoef * (injuryImpact(mctx.HomeInjuries) - injuryImpact(mctx.AwayInjuries))

	return clamp(adj, -maxSituationalAdjustment, maxSituationalAdjustment), warnings
}

// weatherFactor shrinks the situational edge in conditions that randomize outcomes.
func weatherFactor(w *Weather) float64 {
	f := 1.0
	if w.TemperatureF < coldThresholdF {
		f *= weatherDamp
	}
	if w.WindMPH > windThreshold {
		f *= weatherDamp
	}
	if w.PrecipitationPct >= precipitation {
		f *= weatherDamp
	}
	return f
}

// SevereWeather reports whether any dampening condition applies.
func SevereWeather(w *Weather) bool {
	return w != nil && weatherFactor(w) < 1
}

func injuryImpact(injuries []Injury) float64 {
	total := 0.0
	for _, inj := range injuries {
		weight := severityWeight[inj.Severity]
		if inj.Key {
			weight *= keyMultiplier
		}
		total += weight
	}
	return total
}
