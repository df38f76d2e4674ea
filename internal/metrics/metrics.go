// Package metrics exposes the delivery counters scraped by Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for delivery attempts.
const (
	OutcomeDelivered       = "delivered"
	OutcomeRejected        = "rejected"
	OutcomeTransportError  = "transport_error"
	OutcomeCredentialError = "credential_error"
)

// Delivery tracks push delivery outcomes. A nil *Delivery is valid and
// records nothing, so components can run without a registry in tests.
type Delivery struct {
	outcomes *prometheus.CounterVec
	retries  prometheus.Counter
	latency  prometheus.Histogram
}

// NewDelivery registers the delivery collectors on reg.
func NewDelivery(reg prometheus.Registerer) *Delivery {
	d := &Delivery{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push",
			Subsystem: "delivery",
			Name:      "attempts_total",
			Help:      "Completed send attempts keyed by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "push",
			Subsystem: "delivery",
			Name:      "transport_retries_total",
			Help:      "Extra attempts made after a transport failure.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "push",
			Subsystem: "delivery",
			Name:      "duration_seconds",
			Help:      "Wall time of a full send, including any retry.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(d.outcomes, d.retries, d.latency)
	return d
}

// Observe records one finished send.
func (d *Delivery) Observe(outcome string, elapsed time.Duration) {
	if d == nil {
		return
	}
	d.outcomes.WithLabelValues(outcome).Inc()
	d.latency.Observe(elapsed.Seconds())
}

// IncRetried counts one transport-level retry.
func (d *Delivery) IncRetried() {
	if d == nil {
		return
	}
	d.retries.Inc()
}
