// Package domain holds typed identifiers shared across bounded contexts.
//
// Each identifier wraps a UUID so the compiler rejects passing a FamilyID where a
// GroupID is expected. Parse functions are the trust boundary: they reject empty,
// malformed and nil UUIDs with CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "famhelpdesk/pkg/domain-errors"
)

// maxIDLength bounds input before it reaches uuid.Parse.
const maxIDLength = 64

type (
	UserID         uuid.UUID
	FamilyID       uuid.UUID
	GroupID        uuid.UUID
	NotificationID uuid.UUID
)

func (u UserID) String() string         { return uuid.UUID(u).String() }
func (f FamilyID) String() string       { return uuid.UUID(f).String() }
func (g GroupID) String() string        { return uuid.UUID(g).String() }
func (n NotificationID) String() string { return uuid.UUID(n).String() }

func (u UserID) IsNil() bool         { return uuid.UUID(u) == uuid.Nil }
func (f FamilyID) IsNil() bool       { return uuid.UUID(f) == uuid.Nil }
func (g GroupID) IsNil() bool        { return uuid.UUID(g) == uuid.Nil }
func (n NotificationID) IsNil() bool { return uuid.UUID(n) == uuid.Nil }

func (u UserID) MarshalText() ([]byte, error)         { return uuid.UUID(u).MarshalText() }
func (f FamilyID) MarshalText() ([]byte, error)       { return uuid.UUID(f).MarshalText() }
func (g GroupID) MarshalText() ([]byte, error)        { return uuid.UUID(g).MarshalText() }
func (n NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(n).MarshalText() }

func (u *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func (f *FamilyID) UnmarshalText(b []byte) error {
	parsed, err := ParseFamilyID(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (g *GroupID) UnmarshalText(b []byte) error {
	parsed, err := ParseGroupID(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (n *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := ParseNotificationID(string(b))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParseUserID parses a user identifier issued by the identity provider.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseFamilyID(s string) (FamilyID, error) {
	u, err := parseUUID(s, "family_id")
	return FamilyID(u), err
}

func ParseGroupID(s string) (GroupID, error) {
	u, err := parseUUID(s, "group_id")
	return GroupID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification_id")
	return NotificationID(u), err
}

func NewFamilyID() FamilyID             { return FamilyID(uuid.New()) }
func NewGroupID() GroupID               { return GroupID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
