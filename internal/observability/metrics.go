// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Baseline metrics
	BaselinesComputed *prometheus.CounterVec
	AutoSelections    *prometheus.CounterVec

	// Analysis metrics
	AnalysesRun       *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec
	CandidatesSkipped *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Storage metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_promo_lab"
	}

	return &Metrics{
		BaselinesComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "baseline",
			Name:      "computed_total",
			Help:      "Total baseline computations by method and outcome",
		}, []string{"method", "status"}),
		AutoSelections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "baseline",
			Name:      "auto_selections_total",
			Help:      "Total auto-selector outcomes by recommended method",
		}, []string{"method"}),

		AnalysesRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total analyses run by kind and status",
		}, []string{"kind", "status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		CandidatesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "candidates_skipped_total",
			Help:      "Total batch-scan candidates skipped by reason",
		}, []string{"reason"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total analysis cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total analysis cache misses",
		}),

		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Storage query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		StoreQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total storage query errors",
		}, []string{"store", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBaseline records one baseline method outcome.
func RecordBaseline(method string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	DefaultMetrics.BaselinesComputed.WithLabelValues(method, status).Inc()
}

// RecordAutoSelection records the method the auto selector recommended.
func RecordAutoSelection(method string) {
	DefaultMetrics.AutoSelections.WithLabelValues(method).Inc()
}

// RecordAnalysis records one analysis run.
func RecordAnalysis(kind, status string, durationSeconds float64) {
	DefaultMetrics.AnalysesRun.WithLabelValues(kind, status).Inc()
	DefaultMetrics.AnalysisDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordSkippedCandidate records a batch-scan candidate skip.
func RecordSkippedCandidate(reason string) {
	DefaultMetrics.CandidatesSkipped.WithLabelValues(reason).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
	} else {
		DefaultMetrics.CacheMisses.Inc()
	}
}

// RecordStoreQuery records storage query metrics.
func RecordStoreQuery(store, operation string, seconds float64, err error) {
	DefaultMetrics.StoreQueryDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.StoreQueryErrors.WithLabelValues(store, operation).Inc()
	}
}
