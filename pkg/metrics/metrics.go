// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts finished announcement pipelines by final status
	// (image_attached, text_only, failed, skipped).
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placesmap_pipeline_runs_total",
			Help: "Announcement pipeline runs by final status",
		},
		[]string{"status"},
	)

	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placesmap_pipeline_step_duration_seconds",
			Help:    "Duration of individual pipeline steps",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"step", "outcome"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placesmap_upstream_requests_total",
			Help: "Requests to upstream APIs by outcome",
		},
		[]string{"service", "outcome"},
	)

	// CircuitBreakerState is 0=closed, 1=open, 2=half-open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "placesmap_circuit_breaker_state",
			Help: "Circuit breaker state",
		},
		[]string{"name"},
	)
)
