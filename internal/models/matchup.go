package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchupStatus is the lifecycle state of a game.
type MatchupStatus string

const (
	MatchupScheduled  MatchupStatus = "scheduled"
	MatchupInProgress MatchupStatus = "in_progress"
	MatchupFinal      MatchupStatus = "final"
	MatchupCancelled  MatchupStatus = "cancelled"
)

// Matchup represents a game between two sides. Owned by the ingestion pipeline;
// settlement only writes scores and status.
type Matchup struct {
	ID          uuid.UUID     `db:"id" json:"id" validate:"required"`
	ExternalID  string        `db:"external_id" json:"external_id"`
	Sport       Sport         `db:"sport" json:"sport" validate:"required"`
	HomeTeam    string        `db:"home_team" json:"home_team" validate:"required"`
	AwayTeam    string        `db:"away_team" json:"away_team" validate:"required"`
	ScheduledAt time.Time     `db:"scheduled_at" json:"scheduled_at" validate:"required"`
	Season      int           `db:"season" json:"season"`
	Week        *int          `db:"week" json:"week"`
	Outdoor     bool          `db:"outdoor" json:"outdoor"`
	Divisional  bool          `db:"divisional" json:"divisional"`
	HomeScore   *int          `db:"home_score" json:"home_score"`
	AwayScore   *int          `db:"away_score" json:"away_score"`
	Status      MatchupStatus `db:"status" json:"status" validate:"oneof=scheduled in_progress final cancelled"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// IsUpcoming checks if the game hasn't started yet
func (m *Matchup) IsUpcoming() bool {
	return m.Status == MatchupScheduled
}

// IsFinal reports a finished game with both scores recorded.
func (m *Matchup) IsFinal() bool {
	return m.Status == MatchupFinal && m.HomeScore != nil && m.AwayScore != nil
}

// HasScores reports whether both scores are present.
func (m *Matchup) HasScores() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// TimeToStart returns the duration until kickoff
func (m *Matchup) TimeToStart() time.Duration {
	return time.Until(m.ScheduledAt)
}
