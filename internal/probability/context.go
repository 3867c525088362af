package probability

import "github.com/yourusername/clever-parlay/internal/oddsmath"

// TeamStats holds season-to-date statistics for one side. Per-game values;
// sport-specific fields are nil when the feed does not carry them.
type TeamStats struct {
	GamesPlayed   int     `json:"games_played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
	// RecentForm is the win rate over the last several games (0-1).
	RecentForm *float64 `json:"recent_form,omitempty"`

	NetRating      *float64 `json:"net_rating,omitempty"`
	Pace           *float64 `json:"pace,omitempty"`
	PowerPlayPct   *float64 `json:"power_play_pct,omitempty"`
	PenaltyKillPct *float64 `json:"penalty_kill_pct,omitempty"`
	StarterERA     *float64 `json:"starter_era,omitempty"`
	XGFor          *float64 `json:"xg_for,omitempty"`
	XGAgainst      *float64 `json:"xg_against,omitempty"`
	HomeForm       *float64 `json:"home_form,omitempty"`
	AwayForm       *float64 `json:"away_form,omitempty"`
}

// WinPct returns the win percentage with ties counted as half a win.
func (s *TeamStats) WinPct() float64 {
	games := s.Wins + s.Losses + s.Ties
	if games == 0 {
		return 0.5
	}
	return (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(games)
}

// Differential returns points for minus points against per game.
func (s *TeamStats) Differential() float64 {
	return s.PointsFor - s.PointsAgainst
}

// Injury severities reported by the stats feed
const (
	SeverityOut          = "out"
	SeverityDoubtful     = "doubtful"
	SeverityQuestionable = "questionable"
	SeverityProbable     = "probable"
)

// Injury is one reported absence.
type Injury struct {
	Player   string `json:"player"`
	Severity string `json:"severity"`
	Key      bool   `json:"key"`
}

// Weather at an outdoor venue around game time.
type Weather struct {
	TemperatureF     float64 `json:"temperature_f"`
	WindMPH          float64 `json:"wind_mph"`
	PrecipitationPct float64 `json:"precipitation_pct"`
}

// MatchupContext is everything beyond prices that informs the model. Any field
// may be nil; the model degrades to neutral for missing signals.
type MatchupContext struct {
	HomeStats       *TeamStats `json:"home_stats,omitempty"`
	AwayStats       *TeamStats `json:"away_stats,omitempty"`
	HomeRestDays    *int       `json:"home_rest_days,omitempty"`
	AwayRestDays    *int       `json:"away_rest_days,omitempty"`
	AwayTravelMiles *float64   `json:"away_travel_miles,omitempty"`
	Weather         *Weather   `json:"weather,omitempty"`
	HomeInjuries    []Injury   `json:"home_injuries"`
	AwayInjuries    []Injury   `json:"away_injuries"`
	Outdoor         bool       `json:"outdoor"`
	Divisional      bool       `json:"divisional"`
}

// PriceQuote is one source's American price for a side.
type PriceQuote struct {
	Source string `json:"source"`
	Price  int    `json:"price"`
}

// MarketSnapshot carries the moneyline prices seen for a matchup.
type MarketSnapshot struct {
	Home []PriceQuote `json:"home"`
	Away []PriceQuote `json:"away"`
}

// BestHome returns the best (highest payout) home price.
func (s *MarketSnapshot) BestHome() (int, bool) {
	return bestPrice(s.Home)
}

// BestAway returns the best (highest payout) away price.
func (s *MarketSnapshot) BestAway() (int, bool) {
	return bestPrice(s.Away)
}

// American odds are monotone in payout, so the largest value is the best price.
func bestPrice(quotes []PriceQuote) (int, bool) {
	best, found := 0, false
	for _, q := range quotes {
		if _, err := oddsmath.AmericanToDecimal(q.Price); err != nil {
			continue
		}
		if !found || q.Price > best {
			best, found = q.Price, true
		}
	}
	return best, found
}
