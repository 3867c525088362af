package models

import (
	"time"

	"github.com/google/uuid"
)

// Estimation methods reported by the probability model
const (
	MethodOddsAndStats = "odds_and_stats"
	MethodOddsOnly     = "odds_only"
	MethodStatsOnly    = "stats_only"
	MethodMinimalData  = "minimal_data"
)

// CandidateLeg is a priced, model-evaluated outcome. Derived per request and
// never persisted.
type CandidateLeg struct {
	MatchupID     uuid.UUID  `json:"matchup_id"`
	Sport         Sport      `json:"sport"`
	HomeTeam      string     `json:"home_team"`
	AwayTeam      string     `json:"away_team"`
	StartsAt      time.Time  `json:"starts_at"`
	Week          *int       `json:"week,omitempty"`
	MarketType    MarketType `json:"market_type"`
	Outcome       Outcome    `json:"outcome"`
	Point         *float64   `json:"point,omitempty"`
	PlayerName    string     `json:"player_name,omitempty"`
	PropKind      string     `json:"prop_kind,omitempty"`
	Source        string     `json:"source"`
	Price         int        `json:"price"`
	DecimalOdds   float64    `json:"decimal_odds"`
	ModelProb     float64    `json:"model_prob"`
	ImpliedProb   float64    `json:"implied_prob"`
	Edge          float64    `json:"edge"`
	Confidence    float64    `json:"confidence"`
	MovementScore float64    `json:"movement_score"`
	Method        string     `json:"method"`
}

// EdgePoints returns the edge in percentage points.
func (l *CandidateLeg) EdgePoints() float64 {
	return l.Edge * 100
}

// ExpectedValue returns the single-leg EV per unit staked.
func (l *CandidateLeg) ExpectedValue() float64 {
	return l.ModelProb*l.DecimalOdds - 1
}

// PointValue returns the point or zero.
func (l *CandidateLeg) PointValue() float64 {
	if l.Point == nil {
		return 0
	}
	return *l.Point
}

// DedupeKey identifies one side of one market. Alternate lines on the same
// side share a key; props are further split by player and prop kind.
func (l *CandidateLeg) DedupeKey() SelectionKey {
	k := SelectionKey{
		MatchupID:  l.MatchupID,
		MarketType: l.MarketType,
		Outcome:    l.Outcome,
	}
	if l.MarketType == MarketPlayerProp {
		k.PlayerName = l.PlayerName
		k.PropKind = l.PropKind
	}
	return k
}

// Label renders the selection for logs, e.g. "KC -3.5" or "Over 45.5".
func (l *CandidateLeg) Label() string {
	return describeSelection(l.MarketType, l.Outcome, l.HomeTeam, l.AwayTeam, l.Point, l.PlayerName, l.PropKind)
}
