package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketType represents the type of market
type MarketType string

const (
	MarketMoneyline  MarketType = "moneyline"
	MarketSpread     MarketType = "spread"
	MarketTotal      MarketType = "total"
	MarketPlayerProp MarketType = "player_prop"
)

// Outcome is the side of a market a leg picks.
type Outcome string

const (
	OutcomeHome  Outcome = "home"
	OutcomeAway  Outcome = "away"
	OutcomeOver  Outcome = "over"
	OutcomeUnder Outcome = "under"
)

// Opposite returns the complementary outcome of a two-way market.
func (o Outcome) Opposite() Outcome {
	switch o {
	case OutcomeHome:
		return OutcomeAway
	case OutcomeAway:
		return OutcomeHome
	case OutcomeOver:
		return OutcomeUnder
	case OutcomeUnder:
		return OutcomeOver
	}
	return o
}

// QuotedMarket is a point-in-time price for one outcome of one matchup from one
// source. Snapshots are append-only: a price move is a new row.
type QuotedMarket struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	MatchupID  uuid.UUID  `db:"matchup_id" json:"matchup_id" validate:"required"`
	Source     string     `db:"source" json:"source" validate:"required"`
	MarketType MarketType `db:"market_type" json:"market_type" validate:"required"`
	Outcome    Outcome    `db:"outcome" json:"outcome" validate:"required"`
	Point      *float64   `db:"point" json:"point"`
	PlayerName string     `db:"player_name" json:"player_name,omitempty"`
	PropKind   string     `db:"prop_kind" json:"prop_kind,omitempty"`
	Price      string     `db:"price" json:"price"`
	CapturedAt time.Time  `db:"captured_at" json:"captured_at"`
}

// SelectionKey identifies the priced outcome independent of source and time.
type SelectionKey struct {
	MatchupID  uuid.UUID
	MarketType MarketType
	Outcome    Outcome
	Point      float64
	HasPoint   bool
	PlayerName string
	PropKind   string
}

// Key returns the selection this quote prices.
func (q *QuotedMarket) Key() SelectionKey {
	k := SelectionKey{
		MatchupID:  q.MatchupID,
		MarketType: q.MarketType,
		Outcome:    q.Outcome,
		PlayerName: q.PlayerName,
		PropKind:   q.PropKind,
	}
	if q.Point != nil {
		k.Point = *q.Point
		k.HasPoint = true
	}
	return k
}
