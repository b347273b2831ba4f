// Package metrics exposes Prometheus counters for the rating engine.
// All metrics live on a private registry so tests can create isolated
// instances without tripping duplicate-registration panics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application counters.
type Metrics struct {
	registry *prometheus.Registry

	// GamesAudited counts completed games folded into the rating store.
	GamesAudited prometheus.Counter

	// AuditHits / AuditMisses track how the engine's own prior prediction
	// graded against each newly audited final score.
	AuditHits   prometheus.Counter
	AuditMisses prometheus.Counter

	// FeedFailures counts scoreboard fetches that failed (timeout,
	// non-200, malformed payload) and were degraded to an empty day.
	FeedFailures prometheus.Counter

	// PredictionsServed counts predictions produced for API consumers.
	PredictionsServed prometheus.Counter
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		GamesAudited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edgelab",
			Subsystem: "learning",
			Name:      "games_audited_total",
			Help:      "Completed games incorporated into the rating store.",
		}),
		AuditHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edgelab",
			Subsystem: "learning",
			Name:      "audit_hits_total",
			Help:      "Audited games where the prior prediction picked the actual winner.",
		}),
		AuditMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edgelab",
			Subsystem: "learning",
			Name:      "audit_misses_total",
			Help:      "Audited games where the prior prediction picked the losing side.",
		}),
		FeedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edgelab",
			Subsystem: "feed",
			Name:      "fetch_failures_total",
			Help:      "Scoreboard fetches degraded to an empty result.",
		}),
		PredictionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "edgelab",
			Subsystem: "prediction",
			Name:      "served_total",
			Help:      "Predictions produced for slate requests.",
		}),
	}

	reg.MustRegister(
		m.GamesAudited,
		m.AuditHits,
		m.AuditMisses,
		m.FeedFailures,
		m.PredictionsServed,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
