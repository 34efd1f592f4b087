// Package relay publishes audit outbox entries to the event bus. Entries are
// fetched and marked published inside one unit of work, so a crash between
// publish and mark redelivers rather than loses; consumers dedupe on the
// outbox_id header.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"famhelpdesk/internal/platform/kafka"
	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the breaker is cooling down.
var ErrCircuitOpen = errors.New("relay: circuit open")

// Publisher delivers a batch. It must not return before every message is
// acknowledged.
type Publisher interface {
	Publish(ctx context.Context, msgs []kafka.Message) error
}

// TxRunner runs fn as one unit of work.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Relay struct {
	outbox    audit.Outbox
	tx        TxRunner
	publisher Publisher
	breaker   *circuit.Breaker
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
	tracer    trace.Tracer
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) {
		if b != nil {
			r.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

func New(outbox audit.Outbox, tx TxRunner, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		outbox:    outbox,
		tx:        tx,
		publisher: publisher,
		breaker:   circuit.New("audit-relay"),
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		now:       time.Now,
		tracer:    otel.Tracer("famhelpdesk/audit-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox every interval until ctx is cancelled. Publish errors
// are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "audit relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "audit relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && !errors.Is(err, ErrCircuitOpen) && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "audit relay batch failed", "error", err)
			}
		}
	}
}

// Drain publishes batches until the outbox is empty or a batch fails. It
// returns the number of entries published.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.RelayOnce(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n < r.batchSize {
			return total, nil
		}
	}
}

// RelayOnce publishes at most one batch.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	if !r.breaker.Allow() {
		return 0, ErrCircuitOpen
	}

	ctx, span := r.tracer.Start(ctx, "audit.relay_batch")
	defer span.End()

	published := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.outbox.FetchPending(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch pending: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}

		if err := r.publisher.Publish(ctx, toMessages(entries)); err != nil {
			r.recordFailure(ctx)
			return fmt.Errorf("publish batch: %w", err)
		}
		r.recordSuccess(ctx)

		ids := make([]uuid.UUID, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if err := r.outbox.MarkPublished(ctx, ids, r.now()); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		published = len(entries)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int("audit.published", published))
	r.metrics.addPublished(published)
	return published, nil
}

func (r *Relay) recordFailure(ctx context.Context) {
	r.metrics.incFailures()
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.metrics.setCircuitOpen(true)
		r.logger.ErrorContext(ctx, "audit relay circuit opened", "breaker", r.breaker.Name())
	}
}

func (r *Relay) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.setCircuitOpen(false)
		r.logger.InfoContext(ctx, "audit relay circuit closed", "breaker", r.breaker.Name())
	}
}

// toMessages keys records by family so a family's events stay ordered within
// one partition.
func toMessages(entries []audit.OutboxEntry) []kafka.Message {
	msgs := make([]kafka.Message, len(entries))
	for i, e := range entries {
		msgs[i] = kafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"outbox_id":      e.ID.String(),
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
			},
		}
	}
	return msgs
}
