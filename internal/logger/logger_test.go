package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = newLogger(buf, "not-a-level", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestAssemblyLoggerBundleBuilt(t *testing.T) {
	log, buf := setupTestLogger()
	assemblyLogger := NewAssemblyLogger(log)

	assemblyLogger.LogBundleBuilt("bundle_001", "balanced", 8, 0.031, 41.2, 0.27, 12.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "bundle_001", logEntry["bundle_id"])
	assert.Equal(t, "assembly", logEntry["component"])
	assert.Equal(t, float64(8), logEntry["legs"])
}

func TestAssemblyLoggerFailure(t *testing.T) {
	log, buf := setupTestLogger()
	assemblyLogger := NewAssemblyLogger(log)

	assemblyLogger.LogAssemblyFailed("conservative", 6, errors.New("insufficient candidates"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "insufficient candidates", logEntry["error"])
}

func TestSettlementLoggerTransitions(t *testing.T) {
	log, buf := setupTestLogger()
	settlementLogger := NewSettlementLogger(log)

	settlementLogger.LogLegTransition("leg_1", "bundle_1", "matchup_1", "LIVE", "WON", "")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "settlement", logEntry["component"])
	assert.Equal(t, "WON", logEntry["new_status"])

	buf.Reset()
	settlementLogger.LogBundleTransition("bundle_1", "LIVE", "LOST", time.Unix(1700000000, 0))
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(1700000000), logEntry["timestamp"])
}

func TestSettlementLoggerGradingFailure(t *testing.T) {
	log, buf := setupTestLogger()
	settlementLogger := NewSettlementLogger(log)

	settlementLogger.LogGradingFailure("leg_9", "matchup_3", "index out of range")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "index out of range", logEntry["cause"])
}
