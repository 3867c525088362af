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

const (
	errScanBundle = "failed to scan wager bundle: %w"

	bundleColumns = `id, risk_profile, sports, combined_probability, combined_decimal_odds, combined_ev,
		status, created_at, settled_at, updated_at`

	legColumns = `id, bundle_id, position, matchup_id, sport, home_team, away_team, market_type, outcome,
		point, player_name, prop_kind, price, model_prob, implied_prob, edge, confidence, status, reason, settled_at`
)

// PostgresBundleRepository implements BundleRepository for PostgreSQL
type PostgresBundleRepository struct {
	db *database.DB
}

// NewPostgresBundleRepository creates a new wager bundle repository
func NewPostgresBundleRepository(db *database.DB) BundleRepository {
	return &PostgresBundleRepository{db: db}
}

// SaveWagerBundle inserts a bundle and its legs in one transaction
func (r *PostgresBundleRepository) SaveWagerBundle(ctx context.Context, bundle *models.WagerBundle) error {
	if len(bundle.Legs) == 0 {
		return fmt.Errorf("wager bundle %s has no legs", bundle.ID)
	}
	if bundle.Status == "" {
		bundle.Status = models.StatusPending
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		query := `
			INSERT INTO wager_bundles (id, risk_profile, sports, combined_probability, combined_decimal_odds,
			                           combined_ev, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`
		_, err := conn.Exec(ctx, query,
			bundle.ID, bundle.RiskProfile, sportCodes(bundle.Sports), bundle.CombinedProbability,
			bundle.CombinedDecimalOdds, bundle.CombinedEV, bundle.Status, bundle.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create wager bundle: %w", err)
		}

		columns := []string{
			"id", "bundle_id", "position", "matchup_id", "sport", "home_team", "away_team", "market_type",
			"outcome", "point", "player_name", "prop_kind", "price", "model_prob", "implied_prob", "edge",
			"confidence", "status", "reason",
		}
		rows := make([][]any, len(bundle.Legs))
		for i := range bundle.Legs {
			l := &bundle.Legs[i]
			rows[i] = []any{
				l.ID, bundle.ID, l.Position, l.MatchupID, string(l.Sport), l.HomeTeam, l.AwayTeam,
				string(l.MarketType), string(l.Outcome), l.Point, l.PlayerName, l.PropKind, l.Price,
				l.ModelProb, l.ImpliedProb, l.Edge, l.Confidence, string(l.Status), l.Reason,
			}
		}

		count, err := conn.CopyFrom(ctx, pgx.Identifier{"bundle_legs"}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to insert bundle legs: %w", err)
		}
		if count != int64(len(rows)) {
			return fmt.Errorf("inserted %d legs, expected %d", count, len(rows))
		}

		return nil
	})
}

// GetBundle retrieves a bundle with its legs in position order
func (r *PostgresBundleRepository) GetBundle(ctx context.Context, id uuid.UUID) (*models.WagerBundle, error) {
	query := `SELECT ` + bundleColumns + ` FROM wager_bundles WHERE id = $1`

	bundle, err := scanBundle(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager bundle: %w", err)
	}

	if err := r.attachLegs(ctx, []*models.WagerBundle{bundle}); err != nil {
		return nil, err
	}

	return bundle, nil
}

// GetOpenBundles returns up to limit PENDING or LIVE bundles, oldest first,
// strictly after the cursor when one is given.
func (r *PostgresBundleRepository) GetOpenBundles(ctx context.Context, after *models.BundleCursor, limit int) ([]*models.WagerBundle, error) {
	query, args := buildOpenBundlesQuery(after, limit)

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query open bundles: %w", err)
	}
	defer rows.Close()

	var bundles []*models.WagerBundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanBundle, err)
		}
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open bundles: %w", err)
	}

	if err := r.attachLegs(ctx, bundles); err != nil {
		return nil, err
	}

	return bundles, nil
}

func buildOpenBundlesQuery(after *models.BundleCursor, limit int) (string, []any) {
	query := `
		SELECT ` + bundleColumns + `
		FROM wager_bundles
		WHERE status IN ('PENDING', 'LIVE')`
	args := []any{}
	if after != nil {
		query += `
		  AND (created_at, id) > ($1, $2)`
		args = append(args, after.CreatedAt, after.ID)
	}
	args = append(args, limit)
	query += fmt.Sprintf(`
		ORDER BY created_at ASC, id ASC
		LIMIT $%d`, len(args))
	return query, args
}

// UpdateBundleStatus writes the derived status. Legs are never touched here.
func (r *PostgresBundleRepository) UpdateBundleStatus(ctx context.Context, id uuid.UUID, status models.BundleStatus, settledAt *time.Time) error {
	query := `
		UPDATE wager_bundles
		SET status = $2, settled_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Conn(ctx).Exec(ctx, query, id, status, settledAt)
	if err != nil {
		return fmt.Errorf("failed to update bundle status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresBundleRepository) attachLegs(ctx context.Context, bundles []*models.WagerBundle) error {
	if len(bundles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(bundles))
	byID := make(map[uuid.UUID]*models.WagerBundle, len(bundles))
	for i, b := range bundles {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	query := `SELECT ` + legColumns + ` FROM bundle_legs WHERE bundle_id = ANY($1) ORDER BY bundle_id, position`

	legs, err := queryLegs(ctx, r.db.Conn(ctx), query, ids)
	if err != nil {
		return err
	}
	for _, l := range legs {
		b := byID[l.BundleID]
		b.Legs = append(b.Legs, l)
	}

	return nil
}

func queryLegs(ctx context.Context, conn database.Querier, query string, args ...any) ([]models.BundleLeg, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle legs: %w", err)
	}
	defer rows.Close()

	var legs []models.BundleLeg
	for rows.Next() {
		var l models.BundleLeg
		err := rows.Scan(
			&l.ID, &l.BundleID, &l.Position, &l.MatchupID, &l.Sport, &l.HomeTeam, &l.AwayTeam,
			&l.MarketType, &l.Outcome, &l.Point, &l.PlayerName, &l.PropKind, &l.Price, &l.ModelProb,
			&l.ImpliedProb, &l.Edge, &l.Confidence, &l.Status, &l.Reason, &l.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bundle leg: %w", err)
		}
		legs = append(legs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bundle legs: %w", err)
	}

	return legs, nil
}

func scanBundle(row pgx.Row) (*models.WagerBundle, error) {
	b := &models.WagerBundle{}
	var sports []string
	err := row.Scan(
		&b.ID, &b.RiskProfile, &sports, &b.CombinedProbability, &b.CombinedDecimalOdds, &b.CombinedEV,
		&b.Status, &b.CreatedAt, &b.SettledAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Sports = make([]models.Sport, len(sports))
	for i, s := range sports {
		b.Sports[i] = models.Sport(s)
	}
	return b, nil
}

func sportCodes(sports []models.Sport) []string {
	codes := make([]string, len(sports))
	for i, s := range sports {
		codes[i] = string(s)
	}
	return codes
}
