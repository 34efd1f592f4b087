package models

import (
	"time"

	id "famhelpdesk/pkg/domain"
)

// Group is a sub-unit of a Family. A group is always addressed together with
// its family; looking it up under another family finds nothing.
type Group struct {
	ID          id.GroupID  `json:"group_id"`
	FamilyID    id.FamilyID `json:"family_id"`
	Name        string      `json:"group_name"`
	Description string      `json:"group_description,omitempty"`
	CreatedBy   id.UserID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewGroup(groupID id.GroupID, familyID id.FamilyID, name, description string, createdBy id.UserID, now time.Time) (*Group, error) {
	name, description, err := normalizeNameAndDescription("group", name, description)
	if err != nil {
		return nil, err
	}
	return &Group{
		ID:          groupID,
		FamilyID:    familyID,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (g *Group) ApplyUpdate(name, description *string, now time.Time) error {
	newName, newDesc, err := mergeUpdate("group", g.Name, g.Description, name, description)
	if err != nil {
		return err
	}
	g.Name = newName
	g.Description = newDesc
	g.UpdatedAt = now
	return nil
}
