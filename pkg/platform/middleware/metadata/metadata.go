package metadata

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Context keys for client metadata.
type contextKeyClientIP struct{}
type contextKeyClientPlatform struct{}

// ClientMetadata extracts the client IP and a coarse client platform from the
// request and adds them to the context for logging and audit enrichment.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClientMetadata(r.Context(),
			ClientIPFromRequest(r),
			PlatformFromUserAgent(r.Header.Get("User-Agent")),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// GetClientPlatform retrieves the client platform label from the context.
func GetClientPlatform(ctx context.Context) string {
	if p, ok := ctx.Value(contextKeyClientPlatform{}).(string); ok {
		return p
	}
	return ""
}

// WithClientMetadata injects client IP and platform into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, platform string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP)
	ctx = context.WithValue(ctx, contextKeyClientPlatform{}, platform)
	return ctx
}

// PlatformFromUserAgent reduces a User-Agent to "ios", "android", "web",
// "bot" or "unknown". The native iOS client sends a CFNetwork agent that
// useragent does not classify as a browser.
func PlatformFromUserAgent(raw string) string {
	if raw == "" {
		return "unknown"
	}
	if strings.Contains(raw, "CFNetwork") || strings.Contains(raw, "Darwin/") {
		return "ios"
	}

	ua := useragent.New(raw)
	switch {
	case ua.Bot():
		return "bot"
	case strings.Contains(ua.OS(), "iPhone") || strings.Contains(ua.OS(), "iPad") || strings.Contains(ua.Platform(), "iPhone"):
		return "ios"
	case strings.Contains(ua.OS(), "Android"):
		return "android"
	}
	if name, _ := ua.Browser(); name != "" {
		return "web"
	}
	return "unknown"
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first entry is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
