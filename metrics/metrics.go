// Package metrics exposes the Prometheus instrumentation for the
// extraction service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractRequests counts extraction requests by final HTTP status.
	ExtractRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_extract_requests_total",
			Help: "Total number of card extraction requests by status code.",
		},
		[]string{"status"},
	)

	// StageDuration tracks how long each pipeline stage takes.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "card_pipeline_stage_duration_seconds",
			Help:    "Duration of each extraction pipeline stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// FieldsExtracted counts per-field extraction outcomes.
	FieldsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_fields_extracted_total",
			Help: "Per-field extraction outcomes (found or missing).",
		},
		[]string{"field", "outcome"},
	)
)

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordField counts whether a field was found in the recognized text.
func RecordField(field string, found bool) {
	outcome := "missing"
	if found {
		outcome = "found"
	}
	FieldsExtracted.WithLabelValues(field, outcome).Inc()
}
