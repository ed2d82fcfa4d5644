// Package metrics holds the Prometheus collectors. They register with the
// default registry at init and are served by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels shared by the domain counters.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultSuccess  = "success"
	ResultFailure  = "failure"
)

var (
	// HTTPRequestsTotal counts requests by route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptforms_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptforms_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SubmissionsTotal counts public submissions by outcome: accepted or
	// rejected by validation.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptforms_submissions_total",
			Help: "Total number of form submissions by validation result",
		},
		[]string{"result"},
	)

	SchemaGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptforms_schema_generations_total",
			Help: "Total number of schema generation calls by result",
		},
		[]string{"result"},
	)

	SchemaGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptforms_schema_generation_duration_seconds",
			Help:    "Time spent waiting for the language model",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	FormCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptforms_form_cache_lookups_total",
			Help: "Public form cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
