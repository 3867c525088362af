package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/clever-parlay/internal/config"
)

// requiredTables are the tables the repositories read and write.
var requiredTables = []string{
	"matchups",
	"quoted_markets",
	"wager_bundles",
	"bundle_legs",
	"leg_settlements",
}

// Initialize creates a database connection pool and verifies the schema is migrated
func Initialize(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	for _, table := range requiredTables {
		var found *string
		if err := db.pool.QueryRow(ctx, "SELECT to_regclass($1)::text", table).Scan(&found); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
		}
		if found == nil {
			db.Close()
			return nil, fmt.Errorf("table %s not found; run migrations: migrate -path migrations -database \"your_dsn\" up", table)
		}
	}

	var migrationCount int
	err = db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&migrationCount)
	if err != nil {
		// schema applied by hand
		return db, nil
	}

	if migrationCount == 0 {
		log.Warn("No migrations recorded in schema_migrations")
	}

	return db, nil
}
