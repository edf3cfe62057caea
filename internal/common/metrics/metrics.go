package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_analyses_total",
			Help: "Total number of analysis requests by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiment_analysis_duration_seconds",
			Help:    "Duration of uncached analyses in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_cache_lookups_total",
			Help: "Result cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_classifications_total",
			Help: "Classification calls by outcome",
		},
		[]string{"outcome"},
	)

	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_classification_duration_seconds",
			Help:    "Duration of a single classification call",
			Buckets: prometheus.DefBuckets,
		},
	)

	ClassificationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentiment_classifications_in_flight",
			Help: "Classification calls currently holding a governor permit",
		},
	)

	RateGateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_rate_gate_wait_seconds",
			Help:    "Time spent queued on the classification rate gate",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Catalog collaborator requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)
