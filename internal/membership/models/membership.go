package models

import (
	"time"

	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
)

// Membership is the state common to family and group membership rows.
//
// Invariants:
//   - Status is one of AWAITING, MEMBER, DECLINED
//   - IsAdmin only confers rights while Status is MEMBER
//   - RequestedAt is the time of the latest request or direct grant
type Membership struct {
	UserID      id.UserID `json:"user_id"`
	Status      Status    `json:"status"`
	IsAdmin     bool      `json:"is_admin"`
	RequestedAt time.Time `json:"requested_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsMember reports whether the user holds MEMBER status.
func (m *Membership) IsMember() bool {
	return m != nil && m.Status == StatusMember
}

// IsActiveAdmin reports whether the user may act as admin.
func (m *Membership) IsActiveAdmin() bool {
	return m.IsMember() && m.IsAdmin
}

// CanRequest checks whether the row may move to AWAITING.
func (m *Membership) CanRequest() error {
	if m == nil {
		return CanRequestFrom("")
	}
	return CanRequestFrom(m.Status)
}

// ApplyRequest moves the row to AWAITING, clearing any admin flag left from
// an earlier membership.
func (m *Membership) ApplyRequest(now time.Time) {
	m.Status = StatusAwaiting
	m.IsAdmin = false
	m.RequestedAt = now
	m.UpdatedAt = now
}

// CanReview checks that the row is awaiting review.
func (m *Membership) CanReview() error {
	if m.Status != StatusAwaiting {
		return dErrors.New(dErrors.CodeInvalidTransition, "membership is not awaiting review")
	}
	return nil
}

// ApplyReview records the reviewer's decision.
func (m *Membership) ApplyReview(approve bool, now time.Time) {
	if approve {
		m.Status = StatusMember
	} else {
		m.Status = StatusDeclined
	}
	m.UpdatedAt = now
}

// ApplyGrant sets the row straight to MEMBER, bypassing review.
func (m *Membership) ApplyGrant(isAdmin bool, now time.Time) {
	if m.Status != StatusMember {
		m.RequestedAt = now
	}
	m.Status = StatusMember
	m.IsAdmin = isAdmin
	m.UpdatedAt = now
}

// CanChangeRole checks that the row is an active membership.
func (m *Membership) CanChangeRole() error {
	if m.Status != StatusMember {
		return dErrors.New(dErrors.CodeInvalidTransition, "role can only change on an active membership")
	}
	return nil
}

// CanRemove checks that the row is an active membership. Pending requests
// and declines leave only through review or a fresh request.
func (m *Membership) CanRemove() error {
	if m.Status != StatusMember {
		return dErrors.New(dErrors.CodeInvalidTransition, "only active memberships can be removed")
	}
	return nil
}

// ApplyRole sets the admin flag and reports whether anything changed.
func (m *Membership) ApplyRole(isAdmin bool, now time.Time) bool {
	if m.IsAdmin == isAdmin {
		return false
	}
	m.IsAdmin = isAdmin
	m.UpdatedAt = now
	return true
}

// FamilyMembership is a user's relationship to a family. One row per
// (family, user); rows are never deleted.
type FamilyMembership struct {
	FamilyID id.FamilyID `json:"family_id"`
	Membership
}

// NewFamilyMembership returns an empty row for the pair. Callers apply a
// transition before storing it.
func NewFamilyMembership(familyID id.FamilyID, userID id.UserID) *FamilyMembership {
	return &FamilyMembership{FamilyID: familyID, Membership: Membership{UserID: userID}}
}

// GroupMembership is a user's relationship to a group. One row per
// (group, user); removal deletes the row.
type GroupMembership struct {
	FamilyID id.FamilyID `json:"family_id"`
	GroupID  id.GroupID  `json:"group_id"`
	Membership
}

func NewGroupMembership(familyID id.FamilyID, groupID id.GroupID, userID id.UserID) *GroupMembership {
	return &GroupMembership{FamilyID: familyID, GroupID: groupID, Membership: Membership{UserID: userID}}
}

// MyFamily is a membership joined with its family for "my families".
type MyFamily struct {
	Family     *Family           `json:"family"`
	Membership *FamilyMembership `json:"membership"`
}

// MyGroup is a membership joined with its group for "my groups".
type MyGroup struct {
	Group      *Group           `json:"group"`
	Membership *GroupMembership `json:"membership"`
}
