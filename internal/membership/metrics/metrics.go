package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the membership engine.
// Tracks transition outcomes and operation durations.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all membership metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "famhelpdesk_membership_transitions_total",
			Help: "Total number of membership operations by outcome (ok or error code)",
		}, []string{"operation", "outcome"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "famhelpdesk_membership_operation_duration_seconds",
			Help:    "Duration of membership mutations including notification dispatch and audit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// ObserveTransition records one mutation. Call with time.Now() taken at the
// start of the operation.
func (m *Metrics) ObserveTransition(operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
