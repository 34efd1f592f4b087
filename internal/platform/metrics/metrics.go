package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics shared by all routers.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
	ResponsesTotal  *prometheus.CounterVec
}

// New creates and registers the HTTP metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "famhelpdesk_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ResponsesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "famhelpdesk_http_responses_total",
			Help: "HTTP responses by route pattern and status class",
		}, []string{"method", "route", "status"}),
	}
}

// ObserveEndpointLatency records a request duration for a route pattern.
func (m *Metrics) ObserveEndpointLatency(method, route string, seconds float64) {
	m.EndpointLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) IncResponse(method, route, status string) {
	m.ResponsesTotal.WithLabelValues(method, route, status).Inc()
}
