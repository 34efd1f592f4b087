// Package service owns user profiles. A profile is created the first time a
// user reaches the API, together with its audit entry and the welcome
// notification, in one unit of work.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"famhelpdesk/internal/consistency"
	notificationModels "famhelpdesk/internal/notification/models"
	"famhelpdesk/internal/profile/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/platform/sentinel"
	"famhelpdesk/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, p *models.Profile) error
	FindByUser(ctx context.Context, userID id.UserID) (*models.Profile, error)
	Execute(ctx context.Context, userID id.UserID, mutate func(*models.Profile) error) (*models.Profile, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Notifier interface {
	Dispatch(ctx context.Context, intents ...notificationModels.Intent) ([]id.UserID, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    Store
	tx       TxRunner
	notifier Notifier

	auditPublisher AuditPublisher
	reads          *consistency.Layer
	logger         *slog.Logger
	tracer         trace.Tracer

	// known holds users whose profile this process has seen, so the
	// per-request ensure skips the store after the first hit.
	known sync.Map
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

func WithConsistency(layer *consistency.Layer) Option {
	return func(s *Service) {
		s.reads = layer
	}
}

func New(store Store, tx TxRunner, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tx:       tx,
		notifier: notifier,
		logger:   slog.Default(),
		tracer:   otel.Tracer("famhelpdesk/profile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errExists aborts creation when a concurrent request created the profile.
var errExists = errors.New("profile exists")

// EnsureProfile creates the user's profile from the identity claims in ctx
// unless it exists. A newly created profile emits a welcome notification.
func (s *Service) EnsureProfile(ctx context.Context, userID id.UserID) error {
	if _, ok := s.known.Load(userID); ok {
		return nil
	}
	_, err := s.store.FindByUser(ctx, userID)
	switch {
	case err == nil:
		s.known.Store(userID, struct{}{})
		return nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "profile.create")
	defer span.End()

	p := models.NewProfile(userID, requestcontext.IdentityFrom(ctx), requestcontext.Now(ctx))
	var notified []id.UserID
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, p); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return errExists
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
		}
		if err := s.emit(ctx, audit.Event{
			EntityType: audit.EntityUser,
			EntityID:   userID.String(),
			Action:     audit.ActionCreate,
			ActorID:    userID,
			After:      audit.Snapshot(p),
		}); err != nil {
			return err
		}
		var err error
		notified, err = s.notifier.Dispatch(ctx, notificationModels.Welcome(userID))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to dispatch notifications")
		}
		return nil
	})
	if errors.Is(err, errExists) {
		s.known.Store(userID, struct{}{})
		return nil
	}
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return err
	}

	s.known.Store(userID, struct{}{})
	s.logger.InfoContext(ctx, "profile created", "user_id", userID)
	s.invalidate(ctx, consistency.Mutation{Kind: consistency.CreateProfile, UserID: userID, Notified: notified})
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, consistency.Stamp, error) {
	deps := []consistency.Key{consistency.UserProfile(userID)}
	return consistency.Read(ctx, s.reads, "profile:"+userID.String(), deps, func(ctx context.Context) (*models.Profile, error) {
		p, err := s.store.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
		}
		return p, nil
	})
}

// UpdateProfile changes the caller's own display or nick name.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, displayName, nickName *string) (*models.Profile, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "profile.update")
	defer span.End()

	now := requestcontext.Now(ctx)
	var out *models.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var before models.Profile
		updated, err := s.store.Execute(ctx, userID, func(p *models.Profile) error {
			before = *p
			return p.ApplyUpdate(displayName, nickName, now)
		})
		if err != nil {
			if _, ok := dErrors.From(err); ok {
				return err
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "profile not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
		}
		if err := s.emit(ctx, audit.Event{
			EntityType: audit.EntityUser,
			EntityID:   userID.String(),
			Action:     audit.ActionUpdate,
			ActorID:    userID,
			Before:     audit.Snapshot(&before),
			After:      audit.Snapshot(updated),
		}); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	s.invalidate(ctx, consistency.Mutation{Kind: consistency.UpdateProfile, UserID: userID})
	return out, nil
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

func (s *Service) invalidate(ctx context.Context, m consistency.Mutation) {
	if err := s.reads.Invalidate(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "read cache invalidation failed",
			"mutation", m.Kind.String(),
			"error", err,
		)
	}
}
