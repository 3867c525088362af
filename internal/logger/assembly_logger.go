package logger

import (
	"github.com/sirupsen/logrus"
)

// AssemblyLogger provides dedicated logging for bundle assembly.
type AssemblyLogger struct {
	*logrus.Entry
}

// NewAssemblyLogger creates a new assembly logger.
func NewAssemblyLogger(baseLogger *logrus.Logger) *AssemblyLogger {
	return &AssemblyLogger{
		Entry: baseLogger.WithField("component", "assembly"),
	}
}

// LogPoolResolved logs the candidate pool fetched for one sport.
func (al *AssemblyLogger) LogPoolResolved(sport string, poolSize int, step string, fromCache bool) {
	al.WithFields(logrus.Fields{
		"sport":      sport,
		"pool_size":  poolSize,
		"step":       step,
		"from_cache": fromCache,
	}).Debug("Candidate pool resolved")
}

// LogRelaxation logs a policy relaxation step.
func (al *AssemblyLogger) LogRelaxation(profile string, minConfidence, minEdge float64, found, requested int) {
	al.WithFields(logrus.Fields{
		"risk_profile":   profile,
		"min_confidence": minConfidence,
		"min_edge_pts":   minEdge,
		"found":          found,
		"requested":      requested,
	}).Info("Relaxing selection policy")
}

// LogBundleBuilt logs a completed bundle.
func (al *AssemblyLogger) LogBundleBuilt(bundleID, profile string, legs int, combinedProb, combinedOdds, combinedEV, durationMs float64) {
	al.WithFields(logrus.Fields{
		"bundle_id":             bundleID,
		"risk_profile":          profile,
		"legs":                  legs,
		"combined_probability":  combinedProb,
		"combined_decimal_odds": combinedOdds,
		"combined_ev":           combinedEV,
		"duration_ms":           durationMs,
	}).Info("Wager bundle assembled")
}

// LogAssemblyFailed logs a failed assembly.
func (al *AssemblyLogger) LogAssemblyFailed(profile string, requested int, err error) {
	al.WithFields(logrus.Fields{
		"risk_profile": profile,
		"requested":    requested,
	}).WithError(err).Warn("Wager bundle assembly failed")
}

// LogSportStarved logs a sport that could not meet its balanced target.
func (al *AssemblyLogger) LogSportStarved(sport string, target, found int, step string) {
	al.WithFields(logrus.Fields{
		"sport":  sport,
		"target": target,
		"found":  found,
		"step":   step,
	}).Info("Sport short of balanced target")
}
