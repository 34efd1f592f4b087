package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"famhelpdesk/internal/platform/metrics"
	request "famhelpdesk/pkg/platform/middleware/request"
)

// LatencyMiddleware records request latency and status per chi route pattern.
// Patterns keep label cardinality bounded (no IDs in labels).
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &request.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveEndpointLatency(r.Method, route, time.Since(start).Seconds())
			m.IncResponse(r.Method, route, strconv.Itoa(rec.Status/100)+"xx")
		})
	}
}
