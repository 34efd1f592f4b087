package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the notification dispatcher.
type Metrics struct {
	Dispatched   *prometheus.CounterVec
	Acknowledged *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Dispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "famhelpdesk_notifications_dispatched_total",
			Help: "Notifications written by the dispatcher, by type",
		}, []string{"type"}),
		Acknowledged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "famhelpdesk_notifications_acknowledged_total",
			Help: "Notifications marked viewed, by path (single or all)",
		}, []string{"path"}),
	}
}

func (m *Metrics) IncDispatched(notificationType string, n int) {
	m.Dispatched.WithLabelValues(notificationType).Add(float64(n))
}

func (m *Metrics) IncAcknowledged(path string, n int) {
	m.Acknowledged.WithLabelValues(path).Add(float64(n))
}
