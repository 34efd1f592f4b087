// Package publisher records family and user audit events with fail-closed semantics.
//
// Emit writes synchronously through the store attached to the caller's unit of
// work. If the write fails the caller must fail its operation, which rolls the
// change back together with the missing audit entry.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/platform/middleware/metadata"
	"famhelpdesk/pkg/requestcontext"
)

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and appends event. ID, Timestamp, RequestID and Client are
// filled from ctx when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.FamilyID.IsNil() && event.EntityType != audit.EntityUser {
		return fmt.Errorf("audit event requires FamilyID")
	}
	if event.EntityType == audit.EntityUser && event.EntityID == "" {
		return fmt.Errorf("user audit event requires EntityID")
	}
	if event.ActorID.IsNil() {
		return fmt.Errorf("audit event requires ActorID")
	}
	if event.EntityType == "" || event.Action == "" {
		return fmt.Errorf("audit event requires EntityType and Action")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Client == "" {
		event.Client = metadata.GetClientPlatform(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit append failed",
				"event_type", event.EventType(),
				"family_id", event.FamilyID,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.EventType())
	}
	return nil
}
