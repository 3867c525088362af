// Package metrics provides centralized Prometheus metrics registry for the parlay engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BundlesBuiltTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "bundles_built_total",
		Help:      "Total number of wager bundles assembled by risk profile",
	}, []string{"risk_profile"})
	AssemblyFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "assembly_failures_total",
		Help:      "Total number of failed bundle assemblies by reason",
	}, []string{"reason"})
	MalformedPricesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "malformed_prices_total",
		Help:      "Total number of quoted prices dropped as unparseable",
	})
	CandidateCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "candidate_cache_requests_total",
		Help:      "Candidate cache lookups by result",
	}, []string{"result"})
	WindowWideningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "window_widenings_total",
		Help:      "Candidate resolutions that needed a wider search by step",
	}, []string{"step"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clever_parlay",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
)

// Gauge metrics
var (
	CandidateCacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clever_parlay",
		Name:      "candidate_cache_hit_ratio",
		Help:      "Hit ratio of the in-memory candidate cache",
	})
	OpenBundles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clever_parlay",
		Name:      "open_bundles",
		Help:      "Bundles not yet in a terminal status at the last sweep",
	})
)

// Histogram metrics
var (
	AssemblyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_parlay",
		Name:      "assembly_duration_seconds",
		Help:      "Duration of bundle assembly in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 90},
	})
	CandidateResolutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_parlay",
		Name:      "candidate_resolution_duration_seconds",
		Help:      "Duration of candidate leg resolution in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	CandidatePoolSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_parlay",
		Name:      "candidate_pool_size",
		Help:      "Number of candidate legs returned per resolution",
		Buckets:   []float64{0, 5, 10, 20, 50, 100, 200, 500},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(BundlesBuiltTotal)
		registry.MustRegister(AssemblyFailuresTotal)
		registry.MustRegister(MalformedPricesTotal)
		registry.MustRegister(CandidateCacheRequestsTotal)
		registry.MustRegister(WindowWideningsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Register gauge metrics
		registry.MustRegister(CandidateCacheHitRatio)
		registry.MustRegister(OpenBundles)

		// Register histogram metrics
		registry.MustRegister(AssemblyDuration)
		registry.MustRegister(CandidateResolutionDuration)
		registry.MustRegister(CandidatePoolSize)

		// Register settlement metrics
		registry.MustRegister(LegsSettledTotal)
		registry.MustRegister(BundlesSettledTotal)
		registry.MustRegister(SweepFailuresTotal)
		registry.MustRegister(SweepDuration)
		registry.MustRegister(EventsPublishedTotal)
		registry.MustRegister(ScoreUpdatesTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBundleBuilt records a successfully assembled bundle.
func RecordBundleBuilt(riskProfile string, durationSeconds float64) {
	BundlesBuiltTotal.WithLabelValues(riskProfile).Inc()
	AssemblyDuration.Observe(durationSeconds)
}

// RecordAssemblyFailure records a failed assembly.
func RecordAssemblyFailure(reason string) {
	AssemblyFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordMalformedPrice records a dropped price row.
func RecordMalformedPrice() {
	MalformedPricesTotal.Inc()
}

// RecordCacheLookup records a candidate cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CandidateCacheRequestsTotal.WithLabelValues("hit").Inc()
		return
	}
	CandidateCacheRequestsTotal.WithLabelValues("miss").Inc()
}

// UpdateCacheHitRatio sets the in-memory cache hit ratio.
func UpdateCacheHitRatio(ratio float64) {
	CandidateCacheHitRatio.Set(ratio)
}

// RecordWindowWidening records a widening step taken by the resolver.
func RecordWindowWidening(step string) {
	WindowWideningsTotal.WithLabelValues(step).Inc()
}

// RecordCandidateResolution records resolver latency and output size.
func RecordCandidateResolution(durationSeconds float64, legs int) {
	CandidateResolutionDuration.Observe(durationSeconds)
	CandidatePoolSize.Observe(float64(legs))
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateOpenBundles updates the open bundle gauge.
func UpdateOpenBundles(count float64) {
	OpenBundles.Set(count)
}
