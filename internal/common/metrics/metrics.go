// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResyncsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_resyncs_total",
			Help: "Total number of posting store resyncs by outcome",
		},
		[]string{"outcome"}, // applied | superseded | failed
	)

	ResyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "dashboard_resync_duration_seconds",
			Help: "Duration of posting store resyncs in seconds",
		},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_search_requests_total",
			Help: "Total number of candidate searches by outcome",
		},
		[]string{"outcome"}, // succeeded | failed | superseded | rejected
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_submissions_total",
			Help: "Total number of posting submissions by result",
		},
		[]string{"result", "error_code"},
	)

	StaleSearchResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_search_stale_responses_total",
			Help: "Search responses discarded because a newer query superseded them",
		},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of matching backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	PostingsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_postings_loaded",
			Help: "Number of postings in the current snapshot",
		},
	)
)
