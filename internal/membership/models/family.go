package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	platformstrings "famhelpdesk/pkg/platform/strings"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500

	// Characters rejected in names. The clients render names unescaped in a
	// few legacy views.
	forbiddenNameChars = `<>&"'`
)

// Family is the top-level tenant grouping of users.
//
// Invariants:
//   - Name is trimmed, non-empty and at most 100 characters
//   - Description is at most 500 characters
//   - ID, CreatedBy and CreatedAt never change after construction
type Family struct {
	ID          id.FamilyID `json:"family_id"`
	Name        string      `json:"family_name"`
	Description string      `json:"family_description,omitempty"`
	CreatedBy   id.UserID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewFamily(familyID id.FamilyID, name, description string, createdBy id.UserID, now time.Time) (*Family, error) {
	name, description, err := normalizeNameAndDescription("family", name, description)
	if err != nil {
		return nil, err
	}
	return &Family{
		ID:          familyID,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyUpdate replaces the fields that are set. Nil leaves a field unchanged.
func (f *Family) ApplyUpdate(name, description *string, now time.Time) error {
	newName, newDesc, err := mergeUpdate("family", f.Name, f.Description, name, description)
	if err != nil {
		return err
	}
	f.Name = newName
	f.Description = newDesc
	f.UpdatedAt = now
	return nil
}

func normalizeNameAndDescription(kind, name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, kind+" name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", "", dErrors.New(dErrors.CodeValidation, kind+" name must be 100 characters or less")
	}
	if platformstrings.ContainsAnyRune(name, forbiddenNameChars) {
		return "", "", dErrors.New(dErrors.CodeValidation, kind+` name must not contain < > & " or '`)
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", "", dErrors.New(dErrors.CodeValidation, kind+" description must be 500 characters or less")
	}
	return name, description, nil
}

func mergeUpdate(kind, curName, curDesc string, name, description *string) (string, string, error) {
	if name == nil && description == nil {
		return "", "", dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	if name != nil {
		curName = *name
	}
	if description != nil {
		curDesc = *description
	}
	return normalizeNameAndDescription(kind, curName, curDesc)
}
