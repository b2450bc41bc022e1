// Package metrics registers the Prometheus instruments for the
// presence confirmation flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the confirmation counters. A nil *Metrics is valid and
// records nothing, so tests can pass nil instead of touching the
// global registry.
type Metrics struct {
	confirmationsAccepted prometheus.Counter
	confirmationsRejected *prometheus.CounterVec
}

// New creates and registers the metrics on the default registry. Call
// once per process.
func New() *Metrics {
	return &Metrics{
		confirmationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "uvents_presence_confirmations_total",
			Help: "Total number of presence confirmations committed.",
		}),
		confirmationsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "uvents_presence_rejections_total",
			Help: "Presence confirmations rejected, by reason.",
		}, []string{"reason"}),
	}
}

// ConfirmationAccepted counts a committed presence record.
func (m *Metrics) ConfirmationAccepted() {
	if m == nil {
		return
	}
	m.confirmationsAccepted.Inc()
}

// ConfirmationRejected counts a rejected confirmation attempt.
func (m *Metrics) ConfirmationRejected(reason string) {
	if m == nil {
		return
	}
	m.confirmationsRejected.WithLabelValues(reason).Inc()
}
