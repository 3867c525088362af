package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/datasource"
	"github.com/yourusername/clever-parlay/internal/models"
)

// HandleScore records a live score and moves the matchup's legs along:
// a started game marks legs LIVE, a final or cancelled game settles them.
func (e *Engine) HandleScore(ctx context.Context, update datasource.ScoreUpdate) error {
	m, err := e.matchups.GetByExternalID(ctx, update.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to find matchup %s: %w", update.ExternalID, err)
	}

	status := update.Status
	if status == "" {
		status = m.Status
	}
	if err := e.matchups.UpdateScore(ctx, m.ID, update.HomeScore, update.AwayScore, status); err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}

	fields := logrus.Fields{"matchup_id": m.ID, "external_id": update.ExternalID, "status": status}

	switch status {
	case models.MatchupInProgress:
		if m.Status == models.MatchupInProgress {
			return nil
		}
		n, err := e.settler.MarkMatchupLive(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("failed to mark matchup live: %w", err)
		}
		e.logger.WithFields(fields).WithField("legs", n).Info("Matchup started")
	case models.MatchupFinal, models.MatchupCancelled:
		n, err := e.settler.SettleMatchup(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("failed to settle matchup: %w", err)
		}
		e.logger.WithFields(fields).WithField("legs", n).Info("Matchup settled from score feed")
	}

	return nil
}
