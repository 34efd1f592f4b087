package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/membership/metrics"
	"famhelpdesk/internal/membership/models"
	notificationModels "famhelpdesk/internal/notification/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/platform/sentinel"
)

type FamilyStore interface {
	Create(ctx context.Context, f *models.Family) error
	FindByID(ctx context.Context, familyID id.FamilyID) (*models.Family, error)
	List(ctx context.Context) ([]*models.Family, error)
	Execute(ctx context.Context, familyID id.FamilyID, validate func(*models.Family) error, mutate func(*models.Family)) (*models.Family, error)
	FindMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error)
	ExecuteMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID, validate func(*models.FamilyMembership) error, mutate func(*models.FamilyMembership)) (*models.FamilyMembership, error)
	ListMemberships(ctx context.Context, familyID id.FamilyID, status models.Status) ([]*models.FamilyMembership, error)
	ListAdmins(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]models.MyFamily, error)
}

type GroupStore interface {
	Create(ctx context.Context, g *models.Group) error
	FindByID(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) (*models.Group, error)
	ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*models.Group, error)
	Execute(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, validate func(*models.Group) error, mutate func(*models.Group)) (*models.Group, error)
	Delete(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) error
	FindMembership(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.GroupMembership, error)
	ExecuteMembership(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID, validate func(*models.GroupMembership) error, mutate func(*models.GroupMembership)) (*models.GroupMembership, error)
	DeleteMembership(ctx context.Context, groupID id.GroupID, userID id.UserID, validate func(*models.GroupMembership) error) (*models.GroupMembership, error)
	ListMemberships(ctx context.Context, groupID id.GroupID, status models.Status) ([]*models.GroupMembership, error)
	ListAdmins(ctx context.Context, groupID id.GroupID) ([]id.UserID, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]models.MyGroup, error)
}

// TxRunner runs fn as one unit of work. Stores called with the yielded
// context join it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier turns transitions into notifications inside the caller's unit of
// work and returns the recipients.
type Notifier interface {
	Dispatch(ctx context.Context, intents ...notificationModels.Intent) ([]id.UserID, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the membership authorization engine. Every mutation runs as one
// unit of work covering the row change, its notifications and its audit
// entry; affected reads are invalidated after commit.
type Service struct {
	families FamilyStore
	groups   GroupStore
	tx       TxRunner
	notifier Notifier

	auditPublisher AuditPublisher
	reads          *consistency.Layer
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConsistency(layer *consistency.Layer) Option {
	return func(s *Service) {
		s.reads = layer
	}
}

func New(families FamilyStore, groups GroupStore, tx TxRunner, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		families: families,
		groups:   groups,
		tx:       tx,
		notifier: notifier,
		logger:   slog.Default(),
		tracer:   otel.Tracer("famhelpdesk/membership"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errUnchanged aborts a unit of work that found nothing to write.
var errUnchanged = errors.New("unchanged")

// mutate runs fn in a unit of work detached from the caller's cancellation,
// then invalidates the reads the returned mutation affects.
func (s *Service) mutate(ctx context.Context, operation string, fn func(ctx context.Context) (consistency.Mutation, error)) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "membership."+operation)
	defer span.End()
	start := time.Now()

	var m consistency.Mutation
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		m, err = fn(txCtx)
		return err
	})
	if errors.Is(err, errUnchanged) {
		s.metrics.ObserveTransition(operation, "unchanged", start)
		return nil
	}
	if err != nil {
		code := dErrors.CodeOf(err)
		span.SetStatus(codes.Error, string(code))
		s.metrics.ObserveTransition(operation, string(code), start)
		if code == dErrors.CodeInternal {
			s.logger.ErrorContext(ctx, "membership mutation failed",
				"operation", operation,
				"error", err,
			)
		}
		return err
	}

	span.SetAttributes(
		attribute.String("family.id", m.FamilyID.String()),
		attribute.Int("notification.recipients", len(m.Notified)),
	)
	s.metrics.ObserveTransition(operation, "ok", start)
	if err := s.reads.Invalidate(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "read cache invalidation failed",
			"mutation", m.Kind.String(),
			"error", err,
		)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) notify(ctx context.Context, intents ...notificationModels.Intent) ([]id.UserID, error) {
	recipients, err := s.notifier.Dispatch(ctx, intents...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to dispatch notifications")
	}
	return recipients, nil
}

// snapshot encodes v for an audit record; a nil pointer records nothing.
func snapshot[T any](v *T) json.RawMessage {
	if v == nil {
		return nil
	}
	return audit.Snapshot(v)
}

// translate maps store sentinels onto domain errors. Coded errors raised by
// validation closures pass through unchanged.
func translate(err error, notFound, failure string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.From(err); ok {
		return err
	}
	switch {
	case errors.Is(err, errUnchanged):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "concurrent update, retry the request")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, failure)
}

func forbidden(msg string) error {
	return dErrors.New(dErrors.CodeForbidden, msg)
}

// familyListeners returns every user whose "my families" listing includes
// familyID.
func (s *Service) familyListeners(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error) {
	var out []id.UserID
	for _, status := range []models.Status{models.StatusMember, models.StatusAwaiting} {
		rows, err := s.families.ListMemberships(ctx, familyID, status)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list family members")
		}
		for _, m := range rows {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

func (s *Service) groupListeners(ctx context.Context, groupID id.GroupID) ([]id.UserID, error) {
	var out []id.UserID
	for _, status := range []models.Status{models.StatusMember, models.StatusAwaiting} {
		rows, err := s.groups.ListMemberships(ctx, groupID, status)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list group members")
		}
		for _, m := range rows {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

// familyMembership returns the actor's row, or nil when there is none.
func (s *Service) familyMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error) {
	m, err := s.families.FindMembership(ctx, familyID, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load family membership")
	}
	return m, nil
}

func (s *Service) groupMembership(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.GroupMembership, error) {
	m, err := s.groups.FindMembership(ctx, groupID, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group membership")
	}
	return m, nil
}

func (s *Service) requireFamily(ctx context.Context, familyID id.FamilyID) (*models.Family, error) {
	f, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, translate(err, "family not found", "failed to load family")
	}
	return f, nil
}

func (s *Service) requireGroup(ctx context.Context, familyID id.FamilyID, groupID id.GroupID) (*models.Group, error) {
	g, err := s.groups.FindByID(ctx, familyID, groupID)
	if err != nil {
		return nil, translate(err, "group not found", "failed to load group")
	}
	return g, nil
}

// requireFamilyMember loads the family and fails unless userID holds MEMBER
// status in it.
func (s *Service) requireFamilyMember(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error) {
	if _, err := s.requireFamily(ctx, familyID); err != nil {
		return nil, err
	}
	m, err := s.familyMembership(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsMember() {
		return nil, forbidden("family membership required")
	}
	return m, nil
}

func (s *Service) requireFamilyAdmin(ctx context.Context, familyID id.FamilyID, userID id.UserID) error {
	m, err := s.requireFamilyMember(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if !m.IsActiveAdmin() {
		return forbidden("family admin privileges required")
	}
	return nil
}

// requireGroupAdmin loads the group under its family and fails unless userID
// is an active admin of it.
func (s *Service) requireGroupAdmin(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) (*models.Group, error) {
	g, err := s.requireGroup(ctx, familyID, groupID)
	if err != nil {
		return nil, err
	}
	m, err := s.groupMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActiveAdmin() {
		return nil, forbidden("group admin privileges required")
	}
	return g, nil
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
