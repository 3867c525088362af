package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/database"
	"github.com/yourusername/clever-parlay/internal/models"
)

// PostgresMarketRepository implements MarketRepository for PostgreSQL
type PostgresMarketRepository struct {
	db *database.DB
}

// NewPostgresMarketRepository creates a new quote snapshot repository
func NewPostgresMarketRepository(db *database.DB) MarketRepository {
	return &PostgresMarketRepository{db: db}
}

// InsertBatch appends quote snapshots using COPY
func (r *PostgresMarketRepository) InsertBatch(ctx context.Context, quotes []*models.QuotedMarket) error {
	if len(quotes) == 0 {
		return nil
	}

	columns := []string{"id", "matchup_id", "source", "market_type", "outcome", "point", "player_name", "prop_kind", "price", "captured_at"}

	rows := make([][]any, len(quotes))
	for i, q := range quotes {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		rows[i] = []any{
			q.ID, q.MatchupID, q.Source, string(q.MarketType), string(q.Outcome), q.Point,
			q.PlayerName, q.PropKind, q.Price, q.CapturedAt,
		}
	}

	count, err := r.db.Conn(ctx).CopyFrom(ctx, pgx.Identifier{"quoted_markets"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert quoted markets: %w", err)
	}

	if count != int64(len(quotes)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(quotes))
	}

	return nil
}

// GetQuotedMarkets returns the latest snapshot of each distinct outcome per
// source for the given matchups, bounded by limits.
func (r *PostgresMarketRepository) GetQuotedMarkets(ctx context.Context, matchupIDs []uuid.UUID, limits candidates.MarketLimits) ([]*models.QuotedMarket, error) {
	if len(matchupIDs) == 0 {
		return nil, nil
	}

	query, args := buildQuotedMarketsQuery(matchupIDs, limits)

	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quoted markets: %w", err)
	}
	defer rows.Close()

	var quotes []*models.QuotedMarket
	for rows.Next() {
		q := &models.QuotedMarket{}
		err := rows.Scan(
			&q.ID, &q.MatchupID, &q.Source, &q.MarketType, &q.Outcome, &q.Point,
			&q.PlayerName, &q.PropKind, &q.Price, &q.CapturedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quoted market: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quoted markets: %w", err)
	}

	return quotes, nil
}

// buildQuotedMarketsQuery keeps the newest row per outcome, then ranks game
// lines and props separately per matchup so each cap applies on its own.
func buildQuotedMarketsQuery(matchupIDs []uuid.UUID, limits candidates.MarketLimits) (string, []any) {
	args := []any{matchupIDs}
	var filters []string

	if !limits.IncludeProps {
		filters = append(filters, fmt.Sprintf("market_type <> '%s'", models.MarketPlayerProp))
	}
	if limits.MaxMarketsPerMatchup > 0 {
		args = append(args, limits.MaxMarketsPerMatchup)
		filters = append(filters, fmt.Sprintf("(market_type = '%s' OR rn <= $%d)", models.MarketPlayerProp, len(args)))
	}
	if limits.IncludeProps && limits.MaxPropsPerMatchup > 0 {
		args = append(args, limits.MaxPropsPerMatchup)
		filters = append(filters, fmt.Sprintf("(market_type <> '%s' OR rn <= $%d)", models.MarketPlayerProp, len(args)))
	}

	where := ""
	if len(filters) > 0 {
		where = "WHERE " + strings.Join(filters, " AND ")
	}

	limit := ""
	if limits.MaxRows > 0 {
		args = append(args, limits.MaxRows)
		limit = fmt.Sprintf("LIMIT $%d", len(args))
	}

	query := fmt.Sprintf(`
		WITH latest AS (
			SELECT DISTINCT ON (matchup_id, source, market_type, outcome, point, player_name, prop_kind)
			       id, matchup_id, source, market_type, outcome, point, player_name, prop_kind, price, captured_at
			FROM quoted_markets
			WHERE matchup_id = ANY($1)
			ORDER BY matchup_id, source, market_type, outcome, point, player_name, prop_kind, captured_at DESC
		),
		ranked AS (
			SELECT *,
			       ROW_NUMBER() OVER (
			           PARTITION BY matchup_id, (market_type = '%s')
			           ORDER BY captured_at DESC, id
			       ) AS rn
			FROM latest
		)
		SELECT id, matchup_id, source, market_type, outcome, point, player_name, prop_kind, price, captured_at
		FROM ranked
		%s
		ORDER BY matchup_id, captured_at DESC, id
		%s
	`, models.MarketPlayerProp, where, limit)

	return query, args
}
