// Package metrics exposes Prometheus instruments for vault operations and an
// HTTP handler serving them.
package metrics

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the vault instruments. A nil *Metrics is valid and records
// nothing.
//
//   - notevault_operations_total{op,result}
//   - notevault_operation_duration_seconds{op}
//   - notevault_media_removal_failures_total
type Metrics struct {
	Operations           *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	MediaRemovalFailures prometheus.Counter
}

// New registers the instruments with reg. Each registry can hold one set.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notevault_operations_total",
				Help: "Vault operations by outcome",
			},
			[]string{"op", "result"},
		),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notevault_operation_duration_seconds",
				Help:    "Vault operation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"op"},
		),
		MediaRemovalFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "notevault_media_removal_failures_total",
				Help: "Media deletions that failed and were skipped",
			},
		),
	}
}

// Observe records one finished operation.
func (m *Metrics) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, Result(err)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// MediaRemovalFailed counts a swallowed media deletion error.
func (m *Metrics) MediaRemovalFailed() {
	if m == nil {
		return
	}
	m.MediaRemovalFailures.Inc()
}

// Result maps an operation error to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorUnauthenticated), errors.Is(err, common.ErrorUnauthorized):
		return "denied"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrorInvalidInput), errors.Is(err, common.ErrorEmptyKeyword),
		errors.Is(err, common.ErrorDuplicateKeyword), errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrorConfirmationMismatch):
		return "rejected"
	default:
		return "error"
	}
}
