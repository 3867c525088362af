// Package settlement grades legs against final scores and derives bundle
// status from its legs.
package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/clever-parlay/internal/models"
)

var (
	ErrMatchupNotFinal = errors.New("matchup is not final")
)

// MatchupStore reads matchups for settlement.
type MatchupStore interface {
	GetMatchup(ctx context.Context, id uuid.UUID) (*models.Matchup, error)
}

// Store persists leg and bundle transitions. Calls made with a transaction
// context join that transaction.
type Store interface {
	GetLegsByMatchup(ctx context.Context, matchupID uuid.UUID) ([]models.BundleLeg, error)
	GetBundle(ctx context.Context, id uuid.UUID) (*models.WagerBundle, error)
	GetOpenBundles(ctx context.Context, after *models.BundleCursor, limit int) ([]*models.WagerBundle, error)
	UpdateLegStatus(ctx context.Context, legID uuid.UUID, status models.LegStatus, reason string, settledAt *time.Time) error
	RecordLegSettlement(ctx context.Context, rec *models.LegSettlement) error
	UpdateBundleStatus(ctx context.Context, id uuid.UUID, status models.BundleStatus, settledAt *time.Time) error
}

// Transactor runs fn in a single database transaction. A call nested inside
// another runs as a savepoint.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// Publisher announces bundle status changes.
type Publisher interface {
	PublishBundleStatus(ctx context.Context, ev models.BundleStatusEvent) error
}

// Config holds settlement settings.
type Config struct {
	SweepBatchSize int `mapstructure:"sweep_batch_size" validate:"gte=1"`
}

// DefaultConfig returns production settlement settings.
func DefaultConfig() Config {
	return Config{SweepBatchSize: 1000}
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Examined int `json:"examined"`
	Settled  int `json:"settled"`
	Won      int `json:"won"`
	Lost     int `json:"lost"`
	Pushed   int `json:"pushed"`
	Voided   int `json:"voided"`
	Failed   int `json:"failed"`
}
