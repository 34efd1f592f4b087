package handler

import (
	"net/http"

	"famhelpdesk/internal/consistency"
	"famhelpdesk/internal/membership/models"
	"famhelpdesk/pkg/platform/httputil"
)

func (h *Handler) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	families, stamp, err := h.service.ListFamilies(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list families", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, families)
}

func (h *Handler) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req models.CreateFamilyRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.service.CreateFamily(r.Context(), req.Name, req.Description, userID)
	if err != nil {
		h.fail(w, r, "failed to create family", err)
		return
	}
	h.logger.InfoContext(r.Context(), "family created",
		"family_id", created.Family.ID,
		"user_id", userID,
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListMyFamilies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	families, stamp, err := h.service.ListMyFamilies(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to list my families", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, families)
}

func (h *Handler) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	family, stamp, err := h.service.GetFamily(r.Context(), familyID)
	if err != nil {
		h.fail(w, r, "failed to get family", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, family)
}

func (h *Handler) handleUpdateFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	var req models.UpdateFamilyRequest
	if !h.decode(w, r, &req) {
		return
	}
	family, err := h.service.UpdateFamily(r.Context(), familyID, req.Name, req.Description, userID)
	if err != nil {
		h.fail(w, r, "failed to update family", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, family)
}

func (h *Handler) handleRequestFamilyMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	m, err := h.service.RequestFamilyMembership(r.Context(), familyID, userID)
	if err != nil {
		h.fail(w, r, "failed to request family membership", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleReviewFamilyMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	var req models.ReviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	m, err := h.service.ReviewFamilyMembership(r.Context(), familyID, req.TargetUserID, *req.Approve, userID)
	if err != nil {
		h.fail(w, r, "failed to review family membership", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	members, stamp, err := h.service.ListFamilyMembers(r.Context(), familyID, userID)
	if err != nil {
		h.fail(w, r, "failed to list family members", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, members)
}

func (h *Handler) handleListFamilyRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.actor(w, r)
	if !ok {
		return
	}
	familyID, ok := h.familyID(w, r)
	if !ok {
		return
	}
	requests, stamp, err := h.service.ListFamilyRequests(r.Context(), familyID, userID)
	if err != nil {
		h.fail(w, r, "failed to list family requests", err)
		return
	}
	consistency.WriteJSON(w, r, stamp, requests)
}
