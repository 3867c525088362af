package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SettlementLogger provides the audit trail for leg and bundle transitions.
type SettlementLogger struct {
	*logrus.Entry
}

// NewSettlementLogger creates a new settlement logger.
func NewSettlementLogger(baseLogger *logrus.Logger) *SettlementLogger {
	return &SettlementLogger{
		Entry: baseLogger.WithField("component", "settlement"),
	}
}

// LogLegTransition logs a leg status change.
func (sl *SettlementLogger) LogLegTransition(legID, bundleID, matchupID, oldStatus, newStatus, reason string) {
	sl.WithFields(logrus.Fields{
		"leg_id":     legID,
		"bundle_id":  bundleID,
		"matchup_id": matchupID,
		"old_status": oldStatus,
		"new_status": newStatus,
		"reason":     reason,
	}).Info("Leg status changed")
}

// LogBundleTransition logs a derived bundle status change.
func (sl *SettlementLogger) LogBundleTransition(bundleID, oldStatus, newStatus string, at time.Time) {
	sl.WithFields(logrus.Fields{
		"bundle_id":  bundleID,
		"old_status": oldStatus,
		"new_status": newStatus,
		"timestamp":  at.Unix(),
	}).Info("Bundle status changed")
}

// LogGradingFailure logs a leg that could not be graded and was voided.
func (sl *SettlementLogger) LogGradingFailure(legID, matchupID string, cause interface{}) {
	sl.WithFields(logrus.Fields{
		"leg_id":     legID,
		"matchup_id": matchupID,
		"cause":      cause,
	}).Error("Leg grading failed, voiding leg")
}

// LogMatchupSettled logs the result of settling one matchup.
func (sl *SettlementLogger) LogMatchupSettled(matchupID string, legsSettled, bundlesTouched int) {
	sl.WithFields(logrus.Fields{
		"matchup_id":      matchupID,
		"legs_settled":    legsSettled,
		"bundles_touched": bundlesTouched,
	}).Info("Matchup settled")
}

// LogSweep logs a completed sweep.
func (sl *SettlementLogger) LogSweep(examined, settled, failed int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"examined":    examined,
		"settled":     settled,
		"failed":      failed,
		"duration_ms": durationMs,
	}).Info("Bundle status sweep completed")
}
