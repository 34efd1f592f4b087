package httpserver

import (
	"net/http"
	"time"

	"famhelpdesk/internal/platform/config"
)

// New builds the HTTP server. The write timeout leaves headroom past the
// per-request timeout so timed-out handlers can still write their error.
func New(cfg config.Server, handler http.Handler) *http.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
