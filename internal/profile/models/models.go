package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/requestcontext"
)

const (
	MaxDisplayNameLength = 100
	MaxNickNameLength    = 50

	// UnknownName stands in when the identity provider sends no name.
	UnknownName = "unknown"
)

// Profile is a user's display identity inside the help desk. One per user,
// created on the user's first authenticated request.
//
// Invariants:
//   - DisplayName and NickName are trimmed and non-empty
//   - UserID and CreatedAt never change after construction
type Profile struct {
	UserID      id.UserID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	NickName    string    `json:"nick_name"`
	Email       string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProfile seeds a profile from identity provider claims. Display name
// falls back to UnknownName and nick name to the display name.
func NewProfile(userID id.UserID, ident requestcontext.Identity, now time.Time) *Profile {
	display := clip(strings.TrimSpace(ident.Name), MaxDisplayNameLength)
	if display == "" {
		display = UnknownName
	}
	nick := clip(strings.TrimSpace(ident.Nickname), MaxNickNameLength)
	if nick == "" {
		nick = clip(display, MaxNickNameLength)
	}
	return &Profile{
		UserID:      userID,
		DisplayName: display,
		NickName:    nick,
		Email:       strings.TrimSpace(ident.Email),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyUpdate replaces the fields that are set. Nil leaves a field unchanged.
func (p *Profile) ApplyUpdate(displayName, nickName *string, now time.Time) error {
	display, nick := p.DisplayName, p.NickName
	if displayName != nil {
		display = strings.TrimSpace(*displayName)
		if display == "" {
			return dErrors.New(dErrors.CodeValidation, "display_name must not be empty")
		}
		if utf8.RuneCountInString(display) > MaxDisplayNameLength {
			return dErrors.New(dErrors.CodeValidation, "display_name must be 100 characters or less")
		}
	}
	if nickName != nil {
		nick = strings.TrimSpace(*nickName)
		if nick == "" {
			return dErrors.New(dErrors.CodeValidation, "nick_name must not be empty")
		}
		if utf8.RuneCountInString(nick) > MaxNickNameLength {
			return dErrors.New(dErrors.CodeValidation, "nick_name must be 50 characters or less")
		}
	}
	p.DisplayName = display
	p.NickName = nick
	p.UpdatedAt = now
	return nil
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	NickName    *string `json:"nick_name,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName == nil && r.NickName == nil {
		return dErrors.New(dErrors.CodeValidation, "display_name or nick_name is required")
	}
	return nil
}
