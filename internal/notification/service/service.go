package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/notification/metrics"
	"famhelpdesk/internal/notification/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/platform/sentinel"
	platformstrings "famhelpdesk/pkg/platform/strings"
	"famhelpdesk/pkg/requestcontext"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

type Store interface {
	Insert(ctx context.Context, notifications []*models.Notification) error
	List(ctx context.Context, userID id.UserID, q models.Query) ([]*models.Notification, error)
	MarkViewed(ctx context.Context, userID id.UserID, notificationID id.NotificationID) (*models.Notification, error)
	MarkAllViewed(ctx context.Context, userID id.UserID) (int, error)
	CountUnread(ctx context.Context, userID id.UserID) (int, error)
}

// Service is the notification dispatcher. Dispatch runs inside the caller's
// unit of work; the remaining operations serve the notification endpoints.
type Service struct {
	store   Store
	reads   *consistency.Layer
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithConsistency routes reads through the read cache and invalidates it
// after acknowledgements.
func WithConsistency(layer *consistency.Layer) Option {
	return func(s *Service) {
		s.reads = layer
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("famhelpdesk/notification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch writes one notification per recipient of each intent and returns
// the distinct recipients. It must run inside the unit of work of the
// transition that produced the intents.
func (s *Service) Dispatch(ctx context.Context, intents ...models.Intent) ([]id.UserID, error) {
	ctx, span := s.tracer.Start(ctx, "notification.Dispatch")
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		records    []*models.Notification
		recipients []id.UserID
	)
	for _, intent := range intents {
		if !intent.Type.IsValid() {
			return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unknown notification type %q", intent.Type))
		}
		title := intent.Title
		if title == "" {
			title = intent.Type.Title()
		}
		for _, userID := range platformstrings.Dedupe(intent.Recipients) {
			if userID.IsNil() {
				continue
			}
			records = append(records, &models.Notification{
				ID:        id.NewNotificationID(),
				UserID:    userID,
				Type:      intent.Type,
				Title:     title,
				Message:   intent.Message,
				Data:      intent.Data,
				CreatedAt: now,
			})
			recipients = append(recipients, userID)
		}
	}
	span.SetAttributes(attribute.Int("notification.count", len(records)))
	if len(records) == 0 {
		return nil, nil
	}
	if err := s.store.Insert(ctx, records); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notifications")
	}

	if s.metrics != nil {
		for _, n := range records {
			s.metrics.IncDispatched(string(n.Type), 1)
		}
	}
	return platformstrings.Dedupe(recipients), nil
}

// ClampLimit applies the page size default and bounds.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultPageSize
	case limit < 1:
		return 1
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

// ListNotifications returns a page of the user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID id.UserID, limit int, filter models.ViewedFilter, token string) (*models.Page, consistency.Stamp, error) {
	ctx, span := s.tracer.Start(ctx, "notification.List")
	defer span.End()

	before, err := models.DecodeCursor(token)
	if err != nil {
		return nil, "", err
	}
	q := models.Query{Limit: ClampLimit(limit), Filter: filter, BeforeSeq: before}

	cacheKey := "notifications:" + userID.String() + ":" + strconv.Itoa(q.Limit) + ":" + strconv.Itoa(int(q.Filter)) + ":" + strconv.FormatInt(q.BeforeSeq, 10)
	deps := []consistency.Key{consistency.UserNotifications(userID)}
	return consistency.Read(ctx, s.reads, cacheKey, deps, func(ctx context.Context) (*models.Page, error) {
		// One extra row tells whether another page exists.
		list, err := s.store.List(ctx, userID, models.Query{Limit: q.Limit + 1, Filter: q.Filter, BeforeSeq: q.BeforeSeq})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
		}
		page := &models.Page{Notifications: list}
		if len(list) > q.Limit {
			page.Notifications = list[:q.Limit]
			page.NextToken = models.EncodeCursor(list[q.Limit-1].Seq)
		}
		if page.Notifications == nil {
			page.Notifications = []*models.Notification{}
		}
		return page, nil
	})
}

// Acknowledge marks one notification viewed. Acknowledging a viewed
// notification succeeds without change.
func (s *Service) Acknowledge(ctx context.Context, userID id.UserID, notificationID id.NotificationID) (*models.Notification, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "notification.Acknowledge")
	defer span.End()

	n, err := s.store.MarkViewed(ctx, userID, notificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acknowledge notification")
	}
	if s.metrics != nil {
		s.metrics.IncAcknowledged("single", 1)
	}
	s.invalidate(ctx, consistency.Mutation{Kind: consistency.AcknowledgeNotification, UserID: userID})
	return n, nil
}

// AcknowledgeAll marks every notification that existed when the call started
// as viewed. Notifications created while it runs stay unread.
func (s *Service) AcknowledgeAll(ctx context.Context, userID id.UserID) (int, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "notification.AcknowledgeAll")
	defer span.End()

	updated, err := s.store.MarkAllViewed(ctx, userID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acknowledge notifications")
	}
	span.SetAttributes(attribute.Int("notification.updated", updated))
	if s.metrics != nil {
		s.metrics.IncAcknowledged("all", updated)
	}
	s.invalidate(ctx, consistency.Mutation{Kind: consistency.AcknowledgeAllNotifications, UserID: userID})
	return updated, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID id.UserID) (int, consistency.Stamp, error) {
	deps := []consistency.Key{consistency.UserUnread(userID)}
	return consistency.Read(ctx, s.reads, "unread:"+userID.String(), deps, func(ctx context.Context) (int, error) {
		count, err := s.store.CountUnread(ctx, userID)
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count unread notifications")
		}
		return count, nil
	})
}

func (s *Service) invalidate(ctx context.Context, m consistency.Mutation) {
	if err := s.reads.Invalidate(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "read cache invalidation failed",
			"mutation", m.Kind.String(),
			"error", err,
		)
	}
}
