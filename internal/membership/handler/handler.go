package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/membership/models"
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/platform/httputil"
	request "famhelpdesk/pkg/platform/middleware/request"
	"famhelpdesk/pkg/requestcontext"
)

// Service defines the membership operations the handler serves.
type Service interface {
	CreateFamily(ctx context.Context, name, description string, userID id.UserID) (*models.MyFamily, error)
	GetFamily(ctx context.Context, familyID id.FamilyID) (*models.Family, consistency.Stamp, error)
	ListFamilies(ctx context.Context) ([]*models.Family, consistency.Stamp, error)
	UpdateFamily(ctx context.Context, familyID id.FamilyID, name, description *string, userID id.UserID) (*models.Family, error)
	ListMyFamilies(ctx context.Context, userID id.UserID) ([]models.MyFamily, consistency.Stamp, error)
	ListFamilyMembers(ctx context.Context, familyID id.FamilyID, userID id.UserID) ([]*models.FamilyMembership, consistency.Stamp, error)
	ListFamilyRequests(ctx context.Context, familyID id.FamilyID, userID id.UserID) ([]*models.FamilyMembership, consistency.Stamp, error)
	RequestFamilyMembership(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*models.FamilyMembership, error)
	ReviewFamilyMembership(ctx context.Context, familyID id.FamilyID, targetUserID id.UserID, approve bool, reviewerID id.UserID) (*models.FamilyMembership, error)

	CreateGroup(ctx context.Context, familyID id.FamilyID, name, description string, userID id.UserID) (*models.MyGroup, error)
	ListGroups(ctx context.Context, familyID id.FamilyID, userID id.UserID) ([]*models.Group, consistency.Stamp, error)
	ListMyGroups(ctx context.Context, userID id.UserID) ([]models.MyGroup, consistency.Stamp, error)
	UpdateGroup(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, name, description *string, userID id.UserID) (*models.Group, error)
	DeleteGroup(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) error
	ListGroupMembers(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) ([]*models.GroupMembership, consistency.Stamp, error)
	ListGroupRequests(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) ([]*models.GroupMembership, consistency.Stamp, error)
	RequestGroupMembership(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, userID id.UserID) (*models.GroupMembership, error)
	ReviewGroupMembership(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID id.UserID, approve bool, reviewerID id.UserID) (*models.GroupMembership, error)
	AddGroupMemberDirect(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID id.UserID, makeAdmin bool, adminID id.UserID) (*models.GroupMembership, error)
	UpdateGroupMemberRole(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID id.UserID, isAdmin bool, adminID id.UserID) (*models.GroupMembership, error)
	RemoveGroupMember(ctx context.Context, familyID id.FamilyID, groupID id.GroupID, targetUserID, actorID id.UserID) (*models.GroupMembership, error)
}

// Handler serves the family, group and membership routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the membership routes. Callers apply authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/family", h.handleListFamilies)
	r.Post("/family", h.handleCreateFamily)
	r.Get("/family/mine", h.handleListMyFamilies)
	r.Get("/family/{familyId}", h.handleGetFamily)
	r.Put("/family/{familyId}", h.handleUpdateFamily)

	r.Post("/group", h.handleCreateGroup)
	r.Get("/group/mine", h.handleListMyGroups)
	r.Get("/group/{familyId}", h.handleListGroups)
	r.Put("/group/{familyId}/{groupId}", h.handleUpdateGroup)
	r.Delete("/group/{familyId}/{groupId}", h.handleDeleteGroup)

	r.Route("/membership/{familyId}", func(r chi.Router) {
		r.Post("/request", h.handleRequestFamilyMembership)
		r.Put("/review", h.handleReviewFamilyMembership)
		r.Get("/members", h.handleListFamilyMembers)
		r.Get("/requests", h.handleListFamilyRequests)

		r.Route("/{groupId}", func(r chi.Router) {
			r.Post("/request", h.handleRequestGroupMembership)
			r.Put("/review", h.handleReviewGroupMembership)
			r.Get("/members", h.handleListGroupMembers)
			r.Get("/requests", h.handleListGroupRequests)
			r.Post("/members", h.handleAddGroupMember)
			r.Put("/members/role", h.handleUpdateGroupMemberRole)
			r.Delete("/members/{userId}", h.handleRemoveGroupMember)
		})
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

// fail logs at a level matching the error and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	attrs := []any{"request_id", request.GetRequestID(r.Context()), "error", err}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg, attrs...)
	} else {
		h.logger.WarnContext(r.Context(), msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) familyID(w http.ResponseWriter, r *http.Request) (id.FamilyID, bool) {
	familyID, err := id.ParseFamilyID(chi.URLParam(r, "familyId"))
	if err != nil {
		h.fail(w, r, "invalid family id", err)
		return id.FamilyID{}, false
	}
	return familyID, true
}

func (h *Handler) groupPath(w http.ResponseWriter, r *http.Request) (id.FamilyID, id.GroupID, bool) {
	familyID, ok := h.familyID(w, r)
	if !ok {
		return id.FamilyID{}, id.GroupID{}, false
	}
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupId"))
	if err != nil {
		h.fail(w, r, "invalid group id", err)
		return id.FamilyID{}, id.GroupID{}, false
	}
	return familyID, groupID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.fail(w, r, "invalid request body", err)
		return false
	}
	if v, ok := dst.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			h.fail(w, r, "request validation failed", err)
			return false
		}
	}
	return true
}
