package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/notification/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/platform/httputil"
	request "famhelpdesk/pkg/platform/middleware/request"
	"famhelpdesk/pkg/requestcontext"
)

// Service defines the notification operations the handler needs.
type Service interface {
	ListNotifications(ctx context.Context, userID id.UserID, limit int, filter models.ViewedFilter, token string) (*models.Page, consistency.Stamp, error)
	Acknowledge(ctx context.Context, userID id.UserID, notificationID id.NotificationID) (*models.Notification, error)
	AcknowledgeAll(ctx context.Context, userID id.UserID) (int, error)
	UnreadCount(ctx context.Context, userID id.UserID) (int, consistency.Stamp, error)
}

// Handler serves the authenticated user's notifications.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the notification routes. Callers apply authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Get("/notifications/unread", h.handleUnreadCount)
	r.Put("/notifications/acknowledge-all", h.handleAcknowledgeAll)
	r.Put("/notifications/{notificationId}/acknowledge", h.handleAcknowledge)
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

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	var limit int
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, r, "invalid notification limit", dErrors.New(dErrors.CodeValidation, "limit must be an integer"))
			return
		}
		// An explicit zero clamps to one; only an absent limit gets the default.
		limit = max(n, 1)
	}
	filter, err := models.ParseViewedFilter(q.Get("viewed"))
	if err != nil {
		h.fail(w, r, "invalid viewed filter", err)
		return
	}

	page, stamp, err := h.service.ListNotifications(r.Context(), userID, limit, filter, q.Get("next_token"))
	if err != nil {
		h.fail(w, r, "failed to list notifications", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, page)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	count, stamp, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to count unread notifications", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, models.UnreadCount{UnreadCount: count})
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationId"))
	if err != nil {
		h.fail(w, r, "invalid notification id", err)
		return
	}
	n, err := h.service.Acknowledge(r.Context(), userID, notificationID)
	if err != nil {
		h.fail(w, r, "failed to acknowledge notification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) handleAcknowledgeAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	updated, err := h.service.AcknowledgeAll(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to acknowledge notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.AcknowledgeAllResult{Updated: updated})
}
