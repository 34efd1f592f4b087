package models

import (
	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
)

type CreateFamilyRequest struct {
	Name        string `json:"family_name"`
	Description string `json:"family_description"`
}

type UpdateFamilyRequest struct {
	Name        *string `json:"family_name,omitempty"`
	Description *string `json:"family_description,omitempty"`
}

type CreateGroupRequest struct {
	FamilyID    id.FamilyID `json:"family_id"`
	Name        string      `json:"group_name"`
	Description string      `json:"group_description"`
}

func (r *CreateGroupRequest) Validate() error {
	if r.FamilyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "family_id is required")
	}
	return nil
}

type UpdateGroupRequest struct {
	Name        *string `json:"group_name,omitempty"`
	Description *string `json:"group_description,omitempty"`
}

// ReviewRequest carries a reviewer's decision. Approve is a pointer so a
// missing field is rejected instead of read as a decline.
type ReviewRequest struct {
	TargetUserID id.UserID `json:"target_user_id"`
	Approve      *bool     `json:"approve"`
}

func (r *ReviewRequest) Validate() error {
	if r.TargetUserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target_user_id is required")
	}
	if r.Approve == nil {
		return dErrors.New(dErrors.CodeValidation, "approve is required")
	}
	return nil
}

type AddMemberRequest struct {
	TargetUserID id.UserID `json:"target_user_id"`
	MakeAdmin    bool      `json:"make_admin"`
}

func (r *AddMemberRequest) Validate() error {
	if r.TargetUserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target_user_id is required")
	}
	return nil
}

type UpdateRoleRequest struct {
	TargetUserID id.UserID `json:"target_user_id"`
	IsAdmin      *bool     `json:"is_admin"`
}

func (r *UpdateRoleRequest) Validate() error {
	if r.TargetUserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "target_user_id is required")
	}
	if r.IsAdmin == nil {
		return dErrors.New(dErrors.CodeValidation, "is_admin is required")
	}
	return nil
}
