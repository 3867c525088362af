package settlement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/cache"
	"github.com/yourusername/clever-parlay/internal/logger"
	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/models"
)

// Settler drives legs and bundles to terminal status.
type Settler struct {
	tx        Transactor
	matchups  MatchupStore
	store     Store
	publisher Publisher
	clock     cache.Clock
	cfg       Config
	logger    *logger.SettlementLogger
}

// NewSettler creates a new settler. publisher may be nil.
func NewSettler(tx Transactor, matchups MatchupStore, store Store, publisher Publisher, clock cache.Clock, cfg Config, log *logrus.Logger) *Settler {
	if clock == nil {
		clock = cache.SystemClock{}
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = DefaultConfig().SweepBatchSize
	}
	return &Settler{
		tx:        tx,
		matchups:  matchups,
		store:     store,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.NewSettlementLogger(log),
	}
}

// SettleMatchup grades every open leg on a final or cancelled matchup and
// re-derives the bundles it touches, all in one transaction. Legs already
// terminal are left alone, so repeated calls change nothing. It returns the
// number of legs settled.
func (s *Settler) SettleMatchup(ctx context.Context, matchupID uuid.UUID) (int, error) {
	m, err := s.matchups.GetMatchup(ctx, matchupID)
	if err != nil {
		return 0, fmt.Errorf("failed to load matchup %s: %w", matchupID, err)
	}
	cancelled := m.Status == models.MatchupCancelled
	if !cancelled && !m.IsFinal() {
		return 0, fmt.Errorf("%w: %s is %s", ErrMatchupNotFinal, matchupID, m.Status)
	}

	settled := 0
	var events []models.BundleStatusEvent
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		settled, events = 0, nil
		now := s.clock.Now()

		legs, err := s.store.GetLegsByMatchup(txCtx, matchupID)
		if err != nil {
			return fmt.Errorf("failed to load legs: %w", err)
		}

		touched := make(map[uuid.UUID]bool)
		for i := range legs {
			leg := &legs[i]
			if leg.Status.IsTerminal() {
				continue
			}

			grade := void(models.VoidReasonMatchupCancelled)
			if !cancelled {
				grade = s.safeGrade(leg, m)
			}
			err := s.tx.WithTransaction(txCtx, func(legCtx context.Context) error {
				return s.applyGrade(legCtx, leg, m, grade, now)
			})
			if err != nil {
				if txCtx.Err() != nil {
					return err
				}
				s.logger.WithError(err).WithFields(logrus.Fields{
					"leg_id":     leg.ID,
					"bundle_id":  leg.BundleID,
					"matchup_id": matchupID,
				}).Error("Failed to settle leg, leaving it open")
				continue
			}
			settled++
			touched[leg.BundleID] = true
		}

		events, err = s.rederiveAll(txCtx, touched, now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to settle matchup %s: %w", matchupID, err)
	}

	s.publish(ctx, events)
	s.logger.LogMatchupSettled(matchupID.String(), settled, len(events))
	return settled, nil
}

// MarkMatchupLive moves a started matchup's PENDING legs to LIVE and returns
// how many moved.
func (s *Settler) MarkMatchupLive(ctx context.Context, matchupID uuid.UUID) (int, error) {
	moved := 0
	var events []models.BundleStatusEvent
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		moved, events = 0, nil
		now := s.clock.Now()

		legs, err := s.store.GetLegsByMatchup(txCtx, matchupID)
		if err != nil {
			return fmt.Errorf("failed to load legs: %w", err)
		}

		touched := make(map[uuid.UUID]bool)
		for i := range legs {
			leg := &legs[i]
			if leg.Status != models.StatusPending {
				continue
			}
			if err := s.store.UpdateLegStatus(txCtx, leg.ID, models.StatusLive, "", nil); err != nil {
				return fmt.Errorf("failed to update leg %s: %w", leg.ID, err)
			}
			s.logger.LogLegTransition(leg.ID.String(), leg.BundleID.String(), matchupID.String(),
				string(leg.Status), string(models.StatusLive), "matchup started")
			moved++
			touched[leg.BundleID] = true
		}

		events, err = s.rederiveAll(txCtx, touched, now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to mark matchup %s live: %w", matchupID, err)
	}

	s.publish(ctx, events)
	return moved, nil
}

// Sweep re-derives the status of every open bundle and writes only the ones
// that changed. Open bundles are read in SweepBatchSize pages until a short
// page comes back. A failing bundle is counted and skipped.
func (s *Settler) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var res SweepResult

	now := s.clock.Now()
	open := 0
	var after *models.BundleCursor
	for ctx.Err() == nil {
		bundles, err := s.store.GetOpenBundles(ctx, after, s.cfg.SweepBatchSize)
		if err != nil {
			return res, fmt.Errorf("failed to list open bundles: %w", err)
		}
		open += s.sweepPage(ctx, bundles, now, &res)
		if len(bundles) < s.cfg.SweepBatchSize {
			break
		}
		after = bundles[len(bundles)-1].Cursor()
	}

	elapsed := time.Since(start)
	metrics.RecordSweep(elapsed.Seconds(), res.Failed)
	metrics.UpdateOpenBundles(float64(open))
	s.logger.LogSweep(res.Examined, res.Settled, res.Failed, float64(elapsed.Milliseconds()))
	return res, nil
}

// sweepPage re-derives one page of bundles and returns how many stay open.
func (s *Settler) sweepPage(ctx context.Context, bundles []*models.WagerBundle, now time.Time, res *SweepResult) int {
	open := 0
	for _, b := range bundles {
		if ctx.Err() != nil {
			break
		}
		res.Examined++

		ev, err := s.sweepOne(ctx, b, now)
		if err != nil {
			res.Failed++
			s.logger.WithError(err).WithField("bundle_id", b.ID).Error("Failed to re-derive bundle status")
			open++
			continue
		}
		if ev == nil {
			if !b.Status.IsTerminal() {
				open++
			}
			continue
		}

		s.publish(ctx, []models.BundleStatusEvent{*ev})
		if !ev.NewStatus.IsTerminal() {
			open++
			continue
		}
		res.Settled++
		switch ev.NewStatus {
		case models.StatusWon:
			res.Won++
		case models.StatusLost:
			res.Lost++
		case models.StatusPush:
			res.Pushed++
		case models.StatusVoid:
			res.Voided++
		}
	}
	return open
}

func (s *Settler) sweepOne(ctx context.Context, b *models.WagerBundle, now time.Time) (ev *models.BundleStatusEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic deriving bundle %s: %v", b.ID, r)
		}
	}()
	return s.transition(ctx, b, now)
}

// safeGrade grades a leg, voiding it if grading panics.
func (s *Settler) safeGrade(leg *models.BundleLeg, m *models.Matchup) (g Grade) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.LogGradingFailure(leg.ID.String(), m.ID.String(), r)
			g = void(models.VoidReasonGradingFailure)
		}
	}()
	return GradeLeg(leg, m)
}

func (s *Settler) applyGrade(ctx context.Context, leg *models.BundleLeg, m *models.Matchup, g Grade, now time.Time) error {
	if err := s.store.UpdateLegStatus(ctx, leg.ID, g.Status, g.Reason, &now); err != nil {
		return fmt.Errorf("failed to update leg %s: %w", leg.ID, err)
	}
	rec := &models.LegSettlement{
		LegID:     leg.ID,
		BundleID:  leg.BundleID,
		MatchupID: m.ID,
		Status:    g.Status,
		Reason:    g.Reason,
		HomeScore: m.HomeScore,
		AwayScore: m.AwayScore,
		SettledAt: now,
	}
	if err := s.store.RecordLegSettlement(ctx, rec); err != nil {
		return fmt.Errorf("failed to record settlement for leg %s: %w", leg.ID, err)
	}

	metrics.RecordLegSettled(string(g.Status))
	s.logger.LogLegTransition(leg.ID.String(), leg.BundleID.String(), m.ID.String(),
		string(leg.Status), string(g.Status), g.Reason)
	return nil
}

// rederiveAll re-derives each touched bundle in a stable order.
func (s *Settler) rederiveAll(ctx context.Context, touched map[uuid.UUID]bool, now time.Time) ([]models.BundleStatusEvent, error) {
	ids := make([]uuid.UUID, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var events []models.BundleStatusEvent
	for _, id := range ids {
		b, err := s.store.GetBundle(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load bundle %s: %w", id, err)
		}
		ev, err := s.transition(ctx, b, now)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

// transition writes the bundle's derived status when it differs from the
// stored one. It returns nil when nothing changed.
func (s *Settler) transition(ctx context.Context, b *models.WagerBundle, now time.Time) (*models.BundleStatusEvent, error) {
	next := DeriveBundleStatus(b.LegStatuses())
	if next == b.Status {
		return nil, nil
	}

	var settledAt *time.Time
	if next.IsTerminal() {
		settledAt = &now
	}
	if err := s.store.UpdateBundleStatus(ctx, b.ID, next, settledAt); err != nil {
		return nil, fmt.Errorf("failed to update bundle %s: %w", b.ID, err)
	}

	if next.IsTerminal() {
		metrics.RecordBundleSettled(string(next))
	}
	s.logger.LogBundleTransition(b.ID.String(), string(b.Status), string(next), now)
	return &models.BundleStatusEvent{
		BundleID:            b.ID,
		OldStatus:           b.Status,
		NewStatus:           next,
		OccurredAt:          now,
		CombinedProbability: b.RecomputeCombinedProbability(),
	}, nil
}

// publish sends events after commit. Failures are logged; the stored status
// is authoritative and the next sweep does not resend.
func (s *Settler) publish(ctx context.Context, events []models.BundleStatusEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.PublishBundleStatus(ctx, ev); err != nil {
			s.logger.WithError(err).WithField("bundle_id", ev.BundleID).Warn("Failed to publish bundle status")
		}
	}
}
