// Package metrics exposes Prometheus instruments for the composer service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "newswidget"

// Metrics records submission outcomes and remote call latency.
type Metrics struct {
	submissions   *prometheus.CounterVec
	remoteLatency prometheus.Histogram
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Composer submissions by outcome.",
		}, []string{"outcome"}),
		remoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "create_request_duration_seconds",
			Help:      "Duration of create requests sent to the status update service.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.submissions, m.remoteLatency)
	return m
}

// ObserveSubmission counts one submission. A positive duration is recorded
// as the latency of the remote call it made.
func (m *Metrics) ObserveSubmission(outcome string, d time.Duration) {
	m.submissions.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.remoteLatency.Observe(d.Seconds())
	}
}

// RegisterSubscribers exports the number of connected stream subscribers.
func RegisterSubscribers(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stream_subscribers",
		Help:      "Connected results stream subscribers.",
	}, func() float64 {
		return float64(count())
	}))
}
