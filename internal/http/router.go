// Package httpapi assembles the public HTTP surface: global middleware, the
// unauthenticated operational endpoints and the authenticated domain routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"famhelpdesk/internal/platform/metrics"
	platformmw "famhelpdesk/internal/platform/middleware"
	"famhelpdesk/pkg/platform/httputil"
	"famhelpdesk/pkg/platform/middleware/auth"
	"famhelpdesk/pkg/platform/middleware/metadata"
	request "famhelpdesk/pkg/platform/middleware/request"
	"famhelpdesk/pkg/platform/middleware/requesttime"
)

// Registrar adds a module's routes to an authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger         *slog.Logger
	Validator      auth.JWTValidator
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
	// AuthMiddlewares run after the token check, in order, on every
	// authenticated route.
	AuthMiddlewares []func(http.Handler) http.Handler
	// Clock pins the per-request time; nil uses time.Now.
	Clock func() time.Time
}

func NewRouter(cfg Config, modules ...Registrar) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.MiddlewareWithClock(cfg.Clock))
	r.Use(request.Logger(cfg.Logger))
	r.Use(platformmw.LatencyMiddleware(cfg.Metrics))
	r.Use(request.Timeout(cfg.RequestTimeout))
	r.Use(request.ContentTypeJSON)

	r.Get("/health", healthHandler(cfg.HealthChecks, cfg.Logger))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))
		r.Use(cfg.AuthMiddlewares...)
		for _, m := range modules {
			m.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
