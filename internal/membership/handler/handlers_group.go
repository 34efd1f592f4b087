package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/membership/models"
	id "famhelpdesk/pkg/domain"
	"famhelpdesk/pkg/platform/httputil"
)

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req models.CreateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.service.CreateGroup(r.Context(), req.FamilyID, req.Name, req.Description, userID)
	if err != nil {
		h.fail(w, r, "failed to create group", err)
		return
	}
	h.logger.InfoContext(r.Context(), "group created",
		"family_id", req.FamilyID,
		"group_id", created.Group.ID,
		"user_id", userID,
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListMyGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	groups, stamp, err := h.service.ListMyGroups(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to list my groups", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, groups)
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	groups, stamp, err := h.service.ListGroups(r.Context(), familyID, userID)
	if err != nil {
		h.fail(w, r, "failed to list groups", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, groups)
}

func (h *Handler) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	var req models.UpdateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.service.UpdateGroup(r.Context(), familyID, groupID, req.Name, req.Description, userID)
	if err != nil {
		h.fail(w, r, "failed to update group", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteGroup(r.Context(), familyID, groupID, userID); err != nil {
		h.fail(w, r, "failed to delete group", err)
		return
	}
	h.logger.InfoContext(r.Context(), "group deleted",
		"family_id", familyID,
		"group_id", groupID,
		"user_id", userID,
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRequestGroupMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	m, err := h.service.RequestGroupMembership(r.Context(), familyID, groupID, userID)
	if err != nil {
		h.fail(w, r, "failed to request group membership", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleReviewGroupMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	var req models.ReviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.service.ReviewGroupMembership(r.Context(), familyID, groupID, req.TargetUserID, *req.Approve, userID)
	if err != nil {
		h.fail(w, r, "failed to review group membership", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleListGroupMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	members, stamp, err := h.service.ListGroupMembers(r.Context(), familyID, groupID, userID)
	if err != nil {
		h.fail(w, r, "failed to list group members", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, members)
}

func (h *Handler) handleListGroupRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	requests, stamp, err := h.service.ListGroupRequests(r.Context(), familyID, groupID, userID)
	if err != nil {
		h.fail(w, r, "failed to list group requests", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, requests)
}

func (h *Handler) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	var req models.AddMemberRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.service.AddGroupMemberDirect(r.Context(), familyID, groupID, req.TargetUserID, req.MakeAdmin, userID)
	if err != nil {
		h.fail(w, r, "failed to add group member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleUpdateGroupMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	var req models.UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.service.UpdateGroupMemberRole(r.Context(), familyID, groupID, req.TargetUserID, *req.IsAdmin, userID)
	if err != nil {
		h.fail(w, r, "failed to update member role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleRemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, groupID, ok := h.groupPath(w, r)
	if !ok {
		return
	}
	targetUserID, err := id.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, "invalid user id", err)
		return
	}
	m, err := h.service.RemoveGroupMember(r.Context(), familyID, groupID, targetUserID, userID)
	if err != nil {
		h.fail(w, r, "failed to remove group member", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}
