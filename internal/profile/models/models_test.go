package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "famhelpdesk/pkg/domain"
	dErrors "famhelpdesk/pkg/domain-errors"
	"famhelpdesk/pkg/requestcontext"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewProfile(t *testing.T) {
	userID := id.UserID(uuid.New())

	t.Run("claims seed the names", func(t *testing.T) {
		p := NewProfile(userID, requestcontext.Identity{Email: "ann@example.com", Name: " Ann Smith ", Nickname: "Annie"}, testNow)
		assert.Equal(t, "Ann Smith", p.DisplayName)
		assert.Equal(t, "Annie", p.NickName)
		assert.Equal(t, "ann@example.com", p.Email)
		assert.Equal(t, testNow, p.CreatedAt)
	})

	t.Run("nick name falls back to display name", func(t *testing.T) {
		p := NewProfile(userID, requestcontext.Identity{Name: "Ann"}, testNow)
		assert.Equal(t, "Ann", p.NickName)
	})

	t.Run("no claims", func(t *testing.T) {
		p := NewProfile(userID, requestcontext.Identity{}, testNow)
		assert.Equal(t, UnknownName, p.DisplayName)
		assert.Equal(t, UnknownName, p.NickName)
	})

	t.Run("long claims are clipped", func(t *testing.T) {
		p := NewProfile(userID, requestcontext.Identity{Name: strings.Repeat("é", 150)}, testNow)
		assert.Len(t, []rune(p.DisplayName), MaxDisplayNameLength)
		assert.Len(t, []rune(p.NickName), MaxNickNameLength)
	})
}

func TestProfileApplyUpdate(t *testing.T) {
	p := NewProfile(id.UserID(uuid.New()), requestcontext.Identity{Name: "Ann"}, testNow)
	later := testNow.Add(time.Hour)

	nick := " Nan "
	require.NoError(t, p.ApplyUpdate(nil, &nick, later))
	assert.Equal(t, "Ann", p.DisplayName)
	assert.Equal(t, "Nan", p.NickName)
	assert.Equal(t, later, p.UpdatedAt)

	blank := "  "
	err := p.ApplyUpdate(&blank, nil, later)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	long := strings.Repeat("x", MaxNickNameLength+1)
	err = p.ApplyUpdate(nil, &long, later)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, "Nan", p.NickName, "failed update leaves the profile unchanged")
}

func TestUpdateProfileRequestValidate(t *testing.T) {
	assert.Error(t, (&UpdateProfileRequest{}).Validate())
	name := "Ann"
	assert.NoError(t, (&UpdateProfileRequest{DisplayName: &name}).Validate())
}
