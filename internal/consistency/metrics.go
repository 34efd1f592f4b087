package consistency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks read cache effectiveness. A nil *Metrics records nothing.
type Metrics struct {
	Reads           *prometheus.CounterVec
	KeysInvalidated prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Reads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "famhelpdesk_read_cache_total",
			Help: "Read cache lookups by result (hit, miss, bypass)",
		}, []string{"result"}),
		KeysInvalidated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "famhelpdesk_read_cache_keys_invalidated_total",
			Help: "Resource keys bumped by committed mutations",
		}),
	}
}

func (m *Metrics) incResult(result string) {
	if m == nil {
		return
	}
	m.Reads.WithLabelValues(result).Inc()
}

func (m *Metrics) addInvalidated(n int) {
	if m == nil {
		return
	}
	m.KeysInvalidated.Add(float64(n))
}
