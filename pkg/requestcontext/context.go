// Package requestcontext carries the authenticated user, request ID and pinned
// request time through context. Middleware writes them; services read them.
// It does not import net/http so services can depend on it.
package requestcontext

import (
	"context"
	"time"

	id "famhelpdesk/pkg/domain"
)

type (
	userIDKey      struct{}
	identityKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// UserID returns the authenticated user, or the nil ID outside an
// authenticated request.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Identity holds the identity provider's profile claims for the
// authenticated user. Any field may be empty.
type Identity struct {
	Email    string
	Name     string
	Nickname string
}

func IdentityFrom(ctx context.Context) Identity {
	if ident, ok := ctx.Value(identityKey{}).(Identity); ok {
		return ident
	}
	return Identity{}
}

func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the time pinned for the request. Background work such as the
// outbox relay has none and gets the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
