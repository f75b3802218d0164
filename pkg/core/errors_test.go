package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	hookErr := &HookError{Library: "H5P.Foo", Version: Version{1, 2}, Err: errors.New("boom")}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"params broken", &ParamsBrokenError{ContentID: "42"}, KindParamsBroken},
		{"script missing", &ScriptMissingError{Library: "H5P.Foo 1.6"}, KindScriptMissing},
		{"hook", hookErr, KindHookFailed},
		{"wrapped hook", fmt.Errorf("upgrading H5P.Bar: %w", hookErr), KindHookFailed},
		{"untyped", errors.New("disk on fire"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "upgrade script missing for H5P.Foo 1.6",
		(&ScriptMissingError{Library: "H5P.Foo 1.6"}).Error())
	assert.Equal(t, "content 42: parameters are broken",
		(&ParamsBrokenError{ContentID: "42"}).Error())

	cause := errors.New("boom")
	err := &HookError{Library: "H5P.Foo", Version: Version{1, 2}, Panicked: true, Err: cause}
	assert.Equal(t, "upgrade hook H5P.Foo 1.2 panicked: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}
