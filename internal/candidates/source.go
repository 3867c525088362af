package candidates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/probability"
)

// Window is a closed time range of scheduled start times.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// MarketLimits bounds how many quote rows a single resolution reads.
type MarketLimits struct {
	MaxRows              int
	MaxMarketsPerMatchup int
	MaxPropsPerMatchup   int
	IncludeProps         bool
}

// MatchupSource lists upcoming matchups. A nil period means any period.
type MatchupSource interface {
	GetMatchups(ctx context.Context, sport models.Sport, window Window, period *int) ([]*models.Matchup, error)
}

// MarketSource returns quote snapshots for a set of matchups.
type MarketSource interface {
	GetQuotedMarkets(ctx context.Context, matchupIDs []uuid.UUID, limits MarketLimits) ([]*models.QuotedMarket, error)
}

// ContextSource returns statistical and situational context. Implementations
// may return a nil context when nothing is known.
type ContextSource interface {
	GetMatchupContext(ctx context.Context, matchup *models.Matchup) (*probability.MatchupContext, error)
}
