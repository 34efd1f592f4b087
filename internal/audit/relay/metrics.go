package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the outbox relay.
type Metrics struct {
	Published   prometheus.Counter
	Failures    prometheus.Counter
	CircuitOpen prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "famhelpdesk_audit_relay_published_total",
			Help: "Outbox entries published to the event bus",
		}),
		Failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "famhelpdesk_audit_relay_failures_total",
			Help: "Relay batches that failed to publish",
		}),
		CircuitOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "famhelpdesk_audit_relay_circuit_open",
			Help: "1 while the relay circuit breaker is open",
		}),
	}
}

func (m *Metrics) addPublished(n int) {
	if m == nil {
		return
	}
	m.Published.Add(float64(n))
}

func (m *Metrics) incFailures() {
	if m == nil {
		return
	}
	m.Failures.Inc()
}

func (m *Metrics) setCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
