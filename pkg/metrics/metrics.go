// Package metrics provides Prometheus metrics for the analysis engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineMetrics collects and exposes analysis-related Prometheus metrics.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Oracle metrics
	OracleCalls   *prometheus.CounterVec
	OracleLatency prometheus.Histogram

	// Record metrics
	RecordsCreated prometheus.Counter
	Verdicts       *prometheus.CounterVec

	// Concurrency metrics
	InFlight      prometheus.Gauge
	InFlightSkips prometheus.Counter

	// Sweep metrics
	SweepRuns     *prometheus.CounterVec
	SweepFailures prometheus.Counter
}

// NewEngineMetrics creates a new engine metrics collector.
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	em := &EngineMetrics{
		registry: registry,

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchpick_cache_lookups_total",
				Help: "Record lookups by outcome (hit, miss, refresh)",
			},
			[]string{"outcome"},
		),

		OracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchpick_oracle_calls_total",
				Help: "Oracle completion calls by status",
			},
			[]string{"status"},
		),
		OracleLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "matchpick_oracle_latency_seconds",
				Help:    "Oracle completion latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~100s
			},
		),

		RecordsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matchpick_records_created_total",
				Help: "Analysis records persisted",
			},
		),
		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchpick_verdicts_total",
				Help: "Graded verdicts served by kind (hit, miss, neutral)",
			},
			[]string{"verdict"},
		),

		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "matchpick_analyses_in_flight",
				Help: "Analyses currently running",
			},
		),
		InFlightSkips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matchpick_in_flight_skips_total",
				Help: "Requests that found an analysis already running",
			},
		),

		SweepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchpick_sweep_runs_total",
				Help: "Scheduled sweep runs by trigger (today, tomorrow)",
			},
			[]string{"trigger"},
		),
		SweepFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matchpick_sweep_failures_total",
				Help: "Per-match failures during sweeps",
			},
		),
	}

	em.registry.MustRegister(
		em.CacheLookups,
		em.OracleCalls,
		em.OracleLatency,
		em.RecordsCreated,
		em.Verdicts,
		em.InFlight,
		em.InFlightSkips,
		em.SweepRuns,
		em.SweepFailures,
	)

	return em
}

// Registry returns the prometheus registry.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// Handler returns an HTTP handler serving this registry.
func (em *EngineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(em.registry, promhttp.HandlerOpts{})
}

// Global instance for convenience
var defaultMetrics *EngineMetrics
var once sync.Once

// Default returns the default global metrics instance.
func Default() *EngineMetrics {
	once.Do(func() {
		defaultMetrics = NewEngineMetrics()
	})
	return defaultMetrics
}
