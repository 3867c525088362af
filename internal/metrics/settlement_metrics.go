package metrics

import "github.com/prometheus/client_golang/prometheus"

// Settlement counter vectors
var (
	LegsSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "legs_settled_total",
		Help:      "Total number of legs graded by terminal status",
	}, []string{"status"})

	BundlesSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "bundles_settled_total",
		Help:      "Total number of bundles reaching a terminal status",
	}, []string{"status"})

	SweepFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "sweep_failures_total",
		Help:      "Bundles that failed to re-derive during a sweep",
	})

	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "bundle_events_published_total",
		Help:      "Bundle status events published by topic and result",
	}, []string{"topic", "result"})

	ScoreUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "score_updates_total",
		Help:      "Live score updates received by matchup status",
	}, []string{"status"})
)

// Settlement histograms
var (
	SweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_parlay",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of bundle status sweeps in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// RecordLegSettled records a leg reaching a terminal status.
func RecordLegSettled(status string) {
	LegsSettledTotal.WithLabelValues(status).Inc()
}

// RecordBundleSettled records a bundle reaching a terminal status.
func RecordBundleSettled(status string) {
	BundlesSettledTotal.WithLabelValues(status).Inc()
}

// RecordSweep records a completed sweep.
func RecordSweep(durationSeconds float64, failures int) {
	SweepDuration.Observe(durationSeconds)
	SweepFailuresTotal.Add(float64(failures))
}

// RecordEventPublished records a bundle status event publish attempt.
func RecordEventPublished(topic string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EventsPublishedTotal.WithLabelValues(topic, result).Inc()
}

// RecordScoreUpdate records a live score update.
func RecordScoreUpdate(status string) {
	ScoreUpdatesTotal.WithLabelValues(status).Inc()
}
