package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/clever-parlay/internal/candidates"
	"github.com/yourusername/clever-parlay/internal/database"
	"github.com/yourusername/clever-parlay/internal/models"
)

const (
	errScanMatchup = "failed to scan matchup: %w"

	matchupColumns = `id, COALESCE(external_id, ''), sport, home_team, away_team, scheduled_at, season, week,
		outdoor, divisional, home_score, away_score, status, created_at, updated_at`
)

// PostgresMatchupRepository implements MatchupRepository for PostgreSQL
type PostgresMatchupRepository struct {
	db *database.DB
}

// NewPostgresMatchupRepository creates a new matchup repository
func NewPostgresMatchupRepository(db *database.DB) MatchupRepository {
	return &PostgresMatchupRepository{db: db}
}

// Upsert inserts a matchup or refreshes its schedule fields by external ID.
// Scores and status are left to UpdateScore.
func (r *PostgresMatchupRepository) Upsert(ctx context.Context, m *models.Matchup) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = models.MatchupScheduled
	}

	query := `
		INSERT INTO matchups (id, external_id, sport, home_team, away_team, scheduled_at, season, week,
		                      outdoor, divisional, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_id) DO UPDATE SET
			scheduled_at = EXCLUDED.scheduled_at,
			season = EXCLUDED.season,
			week = EXCLUDED.week,
			outdoor = EXCLUDED.outdoor,
			divisional = EXCLUDED.divisional,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		m.ID, m.ExternalID, m.Sport, m.HomeTeam, m.AwayTeam, m.ScheduledAt, m.Season, m.Week,
		m.Outdoor, m.Divisional, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert matchup: %w", err)
	}

	return nil
}

// GetMatchup retrieves a matchup by ID
func (r *PostgresMatchupRepository) GetMatchup(ctx context.Context, id uuid.UUID) (*models.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups WHERE id = $1`

	m, err := scanMatchup(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matchup: %w", err)
	}

	return m, nil
}

// GetByExternalID retrieves a matchup by the feed's identifier
func (r *PostgresMatchupRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups WHERE external_id = $1`

	m, err := scanMatchup(r.db.Conn(ctx).QueryRow(ctx, query, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matchup by external id: %w", err)
	}

	return m, nil
}

// GetMatchups lists scheduled matchups for a sport inside the window. A nil
// period matches any week.
func (r *PostgresMatchupRepository) GetMatchups(ctx context.Context, sport models.Sport, window candidates.Window, period *int) ([]*models.Matchup, error) {
	query := `
		SELECT ` + matchupColumns + `
		FROM matchups
		WHERE sport = $1
		  AND status = 'scheduled'
		  AND scheduled_at BETWEEN $2 AND $3
		  AND ($4::int IS NULL OR week = $4)
		ORDER BY scheduled_at ASC, id ASC
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, sport, window.From, window.To, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchups: %w", err)
	}
	defer rows.Close()

	var matchups []*models.Matchup
	for rows.Next() {
		m, err := scanMatchup(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanMatchup, err)
		}
		matchups = append(matchups, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matchups: %w", err)
	}

	return matchups, nil
}

// UpdateScore records scores and the lifecycle status from a score feed
func (r *PostgresMatchupRepository) UpdateScore(ctx context.Context, id uuid.UUID, homeScore, awayScore *int, status models.MatchupStatus) error {
	query := `
		UPDATE matchups
		SET home_score = COALESCE($2, home_score),
		    away_score = COALESCE($3, away_score),
		    status = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Conn(ctx).Exec(ctx, query, id, homeScore, awayScore, status)
	if err != nil {
		return fmt.Errorf("failed to update matchup score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// GetUnsettledFinished returns finished or cancelled matchups updated since the
// given time that still have open legs.
func (r *PostgresMatchupRepository) GetUnsettledFinished(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT m.id
		FROM matchups m
		WHERE m.status IN ('final', 'cancelled')
		  AND m.updated_at >= $1
		  AND EXISTS (
			SELECT 1 FROM bundle_legs l
			WHERE l.matchup_id = m.id AND l.status IN ('PENDING', 'LIVE')
		  )
		ORDER BY m.updated_at ASC
		LIMIT $2
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsettled matchups: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf(errScanMatchup, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unsettled matchups: %w", err)
	}

	return ids, nil
}

func scanMatchup(row pgx.Row) (*models.Matchup, error) {
	m := &models.Matchup{}
	err := row.Scan(
		&m.ID, &m.ExternalID, &m.Sport, &m.HomeTeam, &m.AwayTeam, &m.ScheduledAt, &m.Season, &m.Week,
		&m.Outdoor, &m.Divisional, &m.HomeScore, &m.AwayScore, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
