// Package metrics holds Prometheus instruments used across simpleform.  All
// collectors are registered with the global registry, so mounting
// promhttp.Handler() is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for ValidationsTotal.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeSkipped = "skipped" // request method did not match
)

var (
	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simpleform_validations_total",
			Help: "Form validations by outcome.",
		}, []string{"outcome"})

	FieldErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simpleform_field_errors_total",
			Help: "Cumulative number of fields that failed validation.",
		})

	BindsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simpleform_binds_total",
			Help: "Cumulative number of successful binds onto target objects.",
		})

	BindErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simpleform_bind_errors_total",
			Help: "Bind failures by reason.",
		}, []string{"reason"})

	CSRFTokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simpleform_csrf_tokens_issued_total",
			Help: "Cumulative number of CSRF tokens created for sessions.",
		})

	CSRFRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "simpleform_csrf_rejected_total",
			Help: "Cumulative number of requests rejected for a bad CSRF token.",
		})
)

func init() {
	prometheus.MustRegister(
		ValidationsTotal,
		FieldErrorsTotal,
		BindsTotal,
		BindErrorsTotal,
		CSRFTokensIssued,
		CSRFRejectedTotal,
	)
}
