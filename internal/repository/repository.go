package repository

import (
	"fmt"

	"github.com/yourusername/clever-parlay/internal/database"
	"github.com/yourusername/clever-parlay/internal/settlement"
)

// Repositories holds all repository implementations
type Repositories struct {
	Matchup    MatchupRepository
	Market     MarketRepository
	Bundle     BundleRepository
	Settlement SettlementRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Matchup:    NewPostgresMatchupRepository(db),
		Market:     NewPostgresMarketRepository(db),
		Bundle:     NewPostgresBundleRepository(db),
		Settlement: NewPostgresSettlementRepository(db),
	}, nil
}

// SettlementStore combines the bundle and settlement repositories into the
// store the settler writes through.
func (r *Repositories) SettlementStore() settlement.Store {
	return settlementStore{BundleRepository: r.Bundle, SettlementRepository: r.Settlement}
}

type settlementStore struct {
	BundleRepository
	SettlementRepository
}
