package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/clever-parlay/internal/config"
)

// TestConfigEnv names the config file used by integration tests.
const TestConfigEnv = "CLEVER_PARLAY_TEST_CONFIG"

// SetupTestDB creates a test database connection and verifies it. The test is
// skipped unless CLEVER_PARLAY_TEST_CONFIG points at a config file.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv(TestConfigEnv)
	if path == "" {
		t.Skipf("integration test: set %s to run", TestConfigEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	t.Cleanup(func() { TeardownTestDB(t, db) })
	return db
}

// TeardownTestDB truncates the engine tables and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := db.pool.Exec(ctx, "TRUNCATE leg_settlements, bundle_legs, wager_bundles, quoted_markets, matchups CASCADE")
	if err != nil {
		t.Logf("warning: failed to truncate test tables: %v", err)
	}
	db.Close()
}
