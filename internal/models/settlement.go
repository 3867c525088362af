package models

import (
	"time"

	"github.com/google/uuid"
)

// Recorded reasons for VOID legs.
const (
	VoidReasonMissingScores    = "missing final scores"
	VoidReasonUnknownMarket    = "unknown market type"
	VoidReasonMissingPoint     = "missing line for market"
	VoidReasonPropUnscoreable  = "player props cannot be graded from the final score"
	VoidReasonMatchupCancelled = "matchup cancelled"
	VoidReasonUnknownOutcome   = "outcome does not apply to market"
	VoidReasonGradingFailure   = "grading failure"
)

// LegSettlement is the write-once record of how a leg was graded.
type LegSettlement struct {
	LegID     uuid.UUID `db:"leg_id" json:"leg_id"`
	BundleID  uuid.UUID `db:"bundle_id" json:"bundle_id"`
	MatchupID uuid.UUID `db:"matchup_id" json:"matchup_id"`
	Status    LegStatus `db:"status" json:"status"`
	Reason    string    `db:"reason" json:"reason"`
	HomeScore *int      `db:"home_score" json:"home_score"`
	AwayScore *int      `db:"away_score" json:"away_score"`
	SettledAt time.Time `db:"settled_at" json:"settled_at"`
}

// BundleStatusEvent is emitted when a bundle's derived status changes.
type BundleStatusEvent struct {
	BundleID   uuid.UUID    `json:"bundle_id"`
	OldStatus  BundleStatus `json:"old_status"`
	NewStatus  BundleStatus `json:"new_status"`
	OccurredAt time.Time    `json:"occurred_at"`

	// CombinedProbability is repriced with PUSH and VOID legs dropped.
	CombinedProbability float64 `json:"combined_probability"`
}
