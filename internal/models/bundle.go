package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RiskProfile names a selection policy.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskBalanced     RiskProfile = "balanced"
	RiskDegen        RiskProfile = "degen"
	RiskSafe         RiskProfile = "safe"
)

// LegStatus represents the settlement state of a leg
type LegStatus string

const (
	StatusPending LegStatus = "PENDING"
	StatusLive    LegStatus = "LIVE"
	StatusWon     LegStatus = "WON"
	StatusLost    LegStatus = "LOST"
	StatusPush    LegStatus = "PUSH"
	StatusVoid    LegStatus = "VOID"
)

// BundleStatus mirrors LegStatus; it is always derived from the legs.
type BundleStatus = LegStatus

// IsTerminal reports whether the status can no longer change.
func (s LegStatus) IsTerminal() bool {
	switch s {
	case StatusWon, StatusLost, StatusPush, StatusVoid:
		return true
	}
	return false
}

// WagerBundle is a persisted parlay. The leg set is fixed at creation.
type WagerBundle struct {
	ID                  uuid.UUID    `db:"id" json:"id"`
	RiskProfile         RiskProfile  `db:"risk_profile" json:"risk_profile" validate:"required"`
	Sports              []Sport      `db:"sports" json:"sports"`
	Legs                []BundleLeg  `json:"legs" validate:"required,min=1,max=20,dive"`
	CombinedProbability float64      `db:"combined_probability" json:"combined_probability"`
	CombinedDecimalOdds float64      `db:"combined_decimal_odds" json:"combined_decimal_odds"`
	CombinedEV          float64      `db:"combined_ev" json:"combined_ev"`
	Status              BundleStatus `db:"status" json:"status"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	SettledAt           *time.Time   `db:"settled_at" json:"settled_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// BundleLeg is one stored leg of a wager bundle.
type BundleLeg struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BundleID    uuid.UUID  `db:"bundle_id" json:"bundle_id"`
	Position    int        `db:"position" json:"position"`
	MatchupID   uuid.UUID  `db:"matchup_id" json:"matchup_id" validate:"required"`
	Sport       Sport      `db:"sport" json:"sport"`
	HomeTeam    string     `db:"home_team" json:"home_team"`
	AwayTeam    string     `db:"away_team" json:"away_team"`
	MarketType  MarketType `db:"market_type" json:"market_type" validate:"required"`
	Outcome     Outcome    `db:"outcome" json:"outcome" validate:"required"`
	Point       *float64   `db:"point" json:"point"`
	PlayerName  string     `db:"player_name" json:"player_name,omitempty"`
	PropKind    string     `db:"prop_kind" json:"prop_kind,omitempty"`
	Price       int        `db:"price" json:"price"`
	ModelProb   float64    `db:"model_prob" json:"model_prob" validate:"gt=0,lte=1"`
	ImpliedProb float64    `db:"implied_prob" json:"implied_prob"`
	Edge        float64    `db:"edge" json:"edge"`
	Confidence  float64    `db:"confidence" json:"confidence"`
	Status      LegStatus  `db:"status" json:"status"`
	Reason      string     `db:"reason" json:"reason,omitempty"`
	SettledAt   *time.Time `db:"settled_at" json:"settled_at"`
}

// NewBundleLeg snapshots a candidate into a stored leg.
func NewBundleLeg(bundleID uuid.UUID, position int, c CandidateLeg) BundleLeg {
	return BundleLeg{
		ID:          uuid.New(),
		BundleID:    bundleID,
		Position:    position,
		MatchupID:   c.MatchupID,
		Sport:       c.Sport,
		HomeTeam:    c.HomeTeam,
		AwayTeam:    c.AwayTeam,
		MarketType:  c.MarketType,
		Outcome:     c.Outcome,
		Point:       c.Point,
		PlayerName:  c.PlayerName,
		PropKind:    c.PropKind,
		Price:       c.Price,
		ModelProb:   c.ModelProb,
		ImpliedProb: c.ImpliedProb,
		Edge:        c.Edge,
		Confidence:  c.Confidence,
		Status:      StatusPending,
	}
}

// Label renders the selection for logs.
func (l *BundleLeg) Label() string {
	return describeSelection(l.MarketType, l.Outcome, l.HomeTeam, l.AwayTeam, l.Point, l.PlayerName, l.PropKind)
}

// LegStatuses returns the status of each leg in order.
func (b *WagerBundle) LegStatuses() []LegStatus {
	statuses := make([]LegStatus, len(b.Legs))
	for i := range b.Legs {
		statuses[i] = b.Legs[i].Status
	}
	return statuses
}

// BundleCursor is a position in the (created_at, id) order of bundles.
type BundleCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Cursor returns the bundle's position for keyset paging.
func (b *WagerBundle) Cursor() *BundleCursor {
	return &BundleCursor{CreatedAt: b.CreatedAt, ID: b.ID}
}

// IsSettled checks if the bundle reached a terminal status
func (b *WagerBundle) IsSettled() bool {
	return b.Status.IsTerminal() && b.SettledAt != nil
}

// RecomputeCombinedProbability multiplies the stored leg probabilities. PUSH and
// VOID legs count as 1.0, matching how a voided leg reprices a parlay.
func (b *WagerBundle) RecomputeCombinedProbability() float64 {
	p := 1.0
	for i := range b.Legs {
		switch b.Legs[i].Status {
		case StatusPush, StatusVoid:
			continue
		}
		p *= b.Legs[i].ModelProb
	}
	return p
}

func describeSelection(market MarketType, outcome Outcome, home, away string, point *float64, player, prop string) string {
	team := home
	if outcome == OutcomeAway {
		team = away
	}
	switch market {
	case MarketMoneyline:
		return team + " ML"
	case MarketSpread:
		if point == nil {
			return team
		}
		return fmt.Sprintf("%s %s", team, formatSigned(*point))
	case MarketTotal:
		side := "Over"
		if outcome == OutcomeUnder {
			side = "Under"
		}
		if point == nil {
			return side
		}
		return fmt.Sprintf("%s %s", side, strconv.FormatFloat(*point, 'f', -1, 64))
	case MarketPlayerProp:
		side := "Over"
		if outcome == OutcomeUnder {
			side = "Under"
		}
		line := ""
		if point != nil {
			line = " " + strconv.FormatFloat(*point, 'f', -1, 64)
		}
		return fmt.Sprintf("%s %s %s%s", player, prop, side, line)
	}
	return string(market)
}

func formatSigned(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}
