package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/clever-parlay/internal/database"
	"github.com/yourusername/clever-parlay/internal/models"
)

// PostgresSettlementRepository implements SettlementRepository for PostgreSQL
type PostgresSettlementRepository struct {
	db *database.DB
}

// NewPostgresSettlementRepository creates a new settlement repository
func NewPostgresSettlementRepository(db *database.DB) SettlementRepository {
	return &PostgresSettlementRepository{db: db}
}

// GetLegsByMatchup returns every leg on the matchup. Inside a transaction the
// rows are locked so concurrent settlements of one matchup serialize.
func (r *PostgresSettlementRepository) GetLegsByMatchup(ctx context.Context, matchupID uuid.UUID) ([]models.BundleLeg, error) {
	query := `SELECT ` + legColumns + ` FROM bundle_legs WHERE matchup_id = $1 ORDER BY bundle_id, position`
	if database.InTransaction(ctx) {
		query += ` FOR UPDATE`
	}

	return queryLegs(ctx, r.db.Conn(ctx), query, matchupID)
}

// UpdateLegStatus moves an open leg to a new status. Terminal legs are left alone.
func (r *PostgresSettlementRepository) UpdateLegStatus(ctx context.Context, legID uuid.UUID, status models.LegStatus, reason string, settledAt *time.Time) error {
	query := `
		UPDATE bundle_legs
		SET status = $2, reason = $3, settled_at = $4
		WHERE id = $1 AND status IN ('PENDING', 'LIVE')
	`

	tag, err := r.db.Conn(ctx).Exec(ctx, query, legID, status, reason, settledAt)
	if err != nil {
		return fmt.Errorf("failed to update leg status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("leg %s is not open: %w", legID, models.ErrNotFound)
	}

	return nil
}

// RecordLegSettlement writes the grading record once; repeats are ignored.
func (r *PostgresSettlementRepository) RecordLegSettlement(ctx context.Context, rec *models.LegSettlement) error {
	query := `
		INSERT INTO leg_settlements (leg_id, bundle_id, matchup_id, status, reason, home_score, away_score, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (leg_id) DO NOTHING
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query,
		rec.LegID, rec.BundleID, rec.MatchupID, rec.Status, rec.Reason, rec.HomeScore, rec.AwayScore, rec.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record leg settlement: %w", err)
	}

	return nil
}

// GetLegSettlement retrieves the grading record for a leg
func (r *PostgresSettlementRepository) GetLegSettlement(ctx context.Context, legID uuid.UUID) (*models.LegSettlement, error) {
	query := `
		SELECT leg_id, bundle_id, matchup_id, status, reason, home_score, away_score, settled_at
		FROM leg_settlements WHERE leg_id = $1
	`

	rec := &models.LegSettlement{}
	err := r.db.Conn(ctx).QueryRow(ctx, query, legID).Scan(
		&rec.LegID, &rec.BundleID, &rec.MatchupID, &rec.Status, &rec.Reason,
		&rec.HomeScore, &rec.AwayScore, &rec.SettledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leg settlement: %w", err)
	}

	return rec, nil
}
