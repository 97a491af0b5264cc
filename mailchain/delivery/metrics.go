package delivery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects delivery counters. A nil *Metrics records nothing.
type Metrics struct {
	deliveries    *prometheus.CounterVec
	envelopeBuild prometheus.Histogram
	payloadBytes  prometheus.Counter
	received      *prometheus.CounterVec
}

// NewMetrics registers the delivery collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailchain",
			Subsystem: "delivery",
			Name:      "requests_total",
			Help:      "Envelope deliveries by outcome.",
		}, []string{"outcome"}),
		envelopeBuild: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mailchain",
			Subsystem: "delivery",
			Name:      "envelope_build_seconds",
			Help:      "Time to build and encode one envelope.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		payloadBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mailchain",
			Subsystem: "delivery",
			Name:      "payload_bytes_total",
			Help:      "Serialized payload bytes stored.",
		}),
		received: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailchain",
			Subsystem: "delivery",
			Name:      "received_total",
			Help:      "Messages opened by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) delivered(err error) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) envelopeBuilt(d time.Duration) {
	if m == nil {
		return
	}
	m.envelopeBuild.Observe(d.Seconds())
}

func (m *Metrics) stored(n int) {
	if m == nil {
		return
	}
	m.payloadBytes.Add(float64(n))
}

func (m *Metrics) opened(err error) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
