package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-parlay/internal/settlement"
)

// Sweeper re-derives open bundle statuses.
type Sweeper interface {
	SweepBundleStatuses(ctx context.Context) (settlement.SweepResult, error)
}

// SettlementPoller settles finished matchups that still have open legs.
type SettlementPoller interface {
	SettleFinishedMatchups(ctx context.Context, since time.Time) (int, error)
}

// Scheduler manages the periodic settlement jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler. Jobs never overlap with themselves.
func NewScheduler(logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(
				cron.Recover(cron.PrintfLogger(entry)),
				cron.SkipIfStillRunning(cron.PrintfLogger(entry)),
			),
		),
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      10 * time.Minute,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleSweep schedules the bundle status sweep
func (s *Scheduler) ScheduleSweep(cronExpression string, sweeper Sweeper) error {
	return s.add(cronExpression, "bundle_sweep", func(ctx context.Context) {
		s.runSweep(ctx, sweeper)
	})
}

// ScheduleSettlementPoll schedules settlement of matchups that finished within
// the lookback window. It backs up the live score stream.
func (s *Scheduler) ScheduleSettlementPoll(cronExpression string, lookback time.Duration, poller SettlementPoller) error {
	return s.add(cronExpression, "settlement_poll", func(ctx context.Context) {
		s.runSettlementPoll(ctx, poller, lookback)
	})
}

func (s *Scheduler) add(cronExpression, name string, job func(context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{"job": name, "schedule": cronExpression}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) runSweep(ctx context.Context, sweeper Sweeper) {
	result, err := sweeper.SweepBundleStatuses(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled sweep failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"examined": result.Examined,
		"settled":  result.Settled,
		"failed":   result.Failed,
	}).Debug("Scheduled sweep completed")
}

func (s *Scheduler) runSettlementPoll(ctx context.Context, poller SettlementPoller, lookback time.Duration) {
	since := s.now().Add(-lookback)
	settled, err := poller.SettleFinishedMatchups(ctx, since)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled settlement poll failed")
		return
	}
	if settled > 0 {
		s.logger.WithField("legs_settled", settled).Info("Settlement poll graded legs")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting up to the graceful timeout
// for running jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler jobs still running after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
