// Package metrics provides Prometheus metrics for template detection and validation
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upload parsing
	ParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templatecheck_parse_errors_total",
			Help: "Uploads that could not be decoded as a workbook",
		},
		[]string{"format"},
	)

	// Classification
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templatecheck_classifications_total",
			Help: "Template classifications by result, cascade stage and confidence tier",
		},
		[]string{"template", "stage", "confidence"},
	)

	// Validation
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templatecheck_validations_total",
			Help: "Structural validations by template and outcome",
		},
		[]string{"template", "valid"},
	)

	ValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "templatecheck_validation_duration_seconds",
			Help:    "Time taken to validate an upload, reference load included",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"template"},
	)

	// Reference templates
	ReferenceLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templatecheck_reference_loads_total",
			Help: "Reference template loads by template and status",
		},
		[]string{"template", "status"},
	)

	ReferenceLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "templatecheck_reference_load_duration_seconds",
			Help:    "Time taken to fetch and parse a reference template",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"template"},
	)

	ReferenceCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templatecheck_reference_cache_total",
			Help: "Reference cache lookups by result",
		},
		[]string{"result"},
	)
)

// RecordReferenceLoad records one reference template load. Loads cut short
// by the caller's context are counted as "canceled", not "error".
func RecordReferenceLoad(template string, started time.Time, err error) {
	status := "success"
	switch {
	case IsContextDone(err):
		status = "canceled"
	case err != nil:
		status = "error"
	}
	ReferenceLoadsTotal.WithLabelValues(template, status).Inc()
	ReferenceLoadDuration.WithLabelValues(template).Observe(time.Since(started).Seconds())
}

// IsContextDone err comes from a cancelled or expired context.
func IsContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// RecordValidation records one completed validation
func RecordValidation(template string, valid bool, started time.Time) {
	v := "false"
	if valid {
		v = "true"
	}
	ValidationsTotal.WithLabelValues(template, v).Inc()
	ValidationDuration.WithLabelValues(template).Observe(time.Since(started).Seconds())
}
