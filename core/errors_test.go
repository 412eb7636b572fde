package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil,
		FieldError{Field: "group", Error: "unknown group"},
		FieldError{Field: "group", Error: "ignored"},
		FieldError{Field: "email", Error: "required"},
	)
	assert.Equal(t, "group: unknown group", err.Error())

	var vErr *ValidationError
	if assert.True(t, errors.As(errors.Wrap(err, "loading bank"), &vErr)) {
		assert.Equal(t, map[string]string{"group": "unknown group", "email": "required"}, vErr.FieldMap())
	}

	plain := NewValidationError(errors.New("bad input"))
	assert.Equal(t, "bad input", plain.Error())
	assert.Nil(t, plain.(*ValidationError).FieldMap())
	assert.Equal(t, "invalid input", ValidationError{}.Error())
}

func TestIsShutdown(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := errors.Wrap(NewShutdownError("credentials rejected", cause), "reading users")

	assert.True(t, IsShutdown(err))
	assert.Equal(t, "reading users: credentials rejected: 401 unauthorized", err.Error())
	assert.True(t, errors.Is(err, cause), "failed! cause lost")
	assert.False(t, IsShutdown(cause))
	assert.False(t, IsShutdown(nil))
}
