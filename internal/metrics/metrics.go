// Package metrics provides Prometheus metrics for the digest pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdigest"

// Run outcomes.
const (
	OutcomeDigest   = "digest"
	OutcomeDegraded = "degraded"
	OutcomeNoData   = "no_data"
	OutcomeNoNews   = "no_news"
)

// Article stages.
const (
	StageFetched    = "fetched"
	StageKept       = "kept"
	StageStored     = "stored"
	StageConflict   = "conflict"
	StageStoreError = "store_error"
)

var (
	// RunsTotal counts pipeline runs by mode and outcome.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"mode", "outcome"},
	)

	// RunDuration measures a full pipeline run.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	// ArticlesTotal counts articles passing each pipeline stage.
	ArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_total",
			Help:      "Total number of articles per pipeline stage",
		},
		[]string{"stage"},
	)

	// EngineFailuresTotal counts contained engine failures.
	EngineFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_failures_total",
			Help:      "Total number of summarization and translation failures",
		},
		[]string{"operation"},
	)

	// DeliveriesTotal counts periodic digest deliveries per chat.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of periodic digest deliveries",
		},
		[]string{"status"},
	)
)

// RecordRun records the outcome and duration of one pipeline run.
func RecordRun(mode, outcome string, seconds float64) {
	RunsTotal.WithLabelValues(mode, outcome).Inc()
	RunDuration.WithLabelValues(mode).Observe(seconds)
}

// AddArticles adds n articles to a stage counter.
func AddArticles(stage string, n int) {
	if n > 0 {
		ArticlesTotal.WithLabelValues(stage).Add(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
