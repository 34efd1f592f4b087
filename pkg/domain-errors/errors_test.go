package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil has no code", nil, ""},
		{"coded", New(CodeNotFound, "family not found"), CodeNotFound},
		{"wrapped by fmt", fmt.Errorf("review: %w", New(CodeInvalidTransition, "not awaiting")), CodeInvalidTransition},
		{"uncoded is internal", errors.New("connection reset"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "failed to store notifications")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to store notifications: disk full", err.Error())
	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}
