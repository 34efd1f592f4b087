package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/profile/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/platform/httputil"
	request "famhelpdesk/pkg/platform/middleware/request"
	"famhelpdesk/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	EnsureProfile(ctx context.Context, userID id.UserID) error
	GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, consistency.Stamp, error)
	UpdateProfile(ctx context.Context, userID id.UserID, displayName, nickName *string) (*models.Profile, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the profile routes. Callers apply authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/user/profile", h.handleGetMine)
	r.Put("/user/profile", h.handleUpdate)
	r.Get("/user/profile/{userId}", h.handleGet)
}

// EnsureProfile creates the caller's profile before the request proceeds. It
// runs after authentication so the identity claims are in the context.
func (h *Handler) EnsureProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.actor(w, r)
		if !ok {
			return
		}
		if err := h.service.EnsureProfile(r.Context(), userID); err != nil {
			h.fail(w, r, "failed to ensure profile", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID := requestcontext.UserID(r.Context())
	if userID.IsNil() {
		h.logger.ErrorContext(r.Context(), "userID missing from context despite auth middleware",
			"request_id", request.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	attrs := []any{"request_id", request.GetRequestID(r.Context()), "error", err}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg, attrs...)
	} else {
		h.logger.WarnContext(r.Context(), msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) handleGetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, "invalid user id", err)
		return
	}
	h.writeProfile(w, r, userID)
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, userID id.UserID) {
	p, stamp, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to get profile", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, "request validation failed", err)
		return
	}
	p, err := h.service.UpdateProfile(r.Context(), userID, req.DisplayName, req.NickName)
	if err != nil {
		h.fail(w, r, "failed to update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
