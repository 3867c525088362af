package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/models"
)

// MatchupRepository defines the interface for matchup data access
type MatchupRepository interface {
	Upsert(ctx context.Context, matchup *models.Matchup) error
	GetMatchup(ctx context.Context, id uuid.UUID) (*models.Matchup, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Matchup, error)
	GetMatchups(ctx context.Context, sport models.Sport, window candidates.Window, period *int) ([]*models.Matchup, error)
	UpdateScore(ctx context.Context, id uuid.UUID, homeScore, awayScore *int, status models.MatchupStatus) error
	GetUnsettledFinished(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

// MarketRepository defines the interface for quote snapshot access
type MarketRepository interface {
	InsertBatch(ctx context.Context, quotes []*models.QuotedMarket) error
	GetQuotedMarkets(ctx context.Context, matchupIDs []uuid.UUID, limits candidates.MarketLimits) ([]*models.QuotedMarket, error)
}

// BundleRepository defines the interface for wager bundle persistence
type BundleRepository interface {
	SaveWagerBundle(ctx context.Context, bundle *models.WagerBundle) error
	GetBundle(ctx context.Context, id uuid.UUID) (*models.WagerBundle, error)
	GetOpenBundles(ctx context.Context, after *models.BundleCursor, limit int) ([]*models.WagerBundle, error)
	UpdateBundleStatus(ctx context.Context, id uuid.UUID, status models.BundleStatus, settledAt *time.Time) error
}

// SettlementRepository defines the interface for leg grading writes
type SettlementRepository interface {
	GetLegsByMatchup(ctx context.Context, matchupID uuid.UUID) ([]models.BundleLeg, error)
	UpdateLegStatus(ctx context.Context, legID uuid.UUID, status models.LegStatus, reason string, settledAt *time.Time) error
	RecordLegSettlement(ctx context.Context, rec *models.LegSettlement) error
	GetLegSettlement(ctx context.Context, legID uuid.UUID) (*models.LegSettlement, error)
}
