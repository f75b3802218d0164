package core

import (
	"errors"
	"fmt"
)

// Error kinds reported by ErrorKind.
const (
	KindParamsBroken  = "paramsBroken"
	KindScriptMissing = "scriptMissing"
	KindHookFailed    = "hookFailed"
	KindBadVersion    = "badVersion"
)

// ParamsBrokenError reports content parameters that could not be decoded
// into an object.
type ParamsBrokenError struct {
	ContentID string
	Err       error
}

func (e *ParamsBrokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("content %s: parameters are broken: %v", e.ContentID, e.Err)
	}
	return fmt.Sprintf("content %s: parameters are broken", e.ContentID)
}

func (e *ParamsBrokenError) Unwrap() error { return e.Err }

// Kind returns KindParamsBroken.
func (e *ParamsBrokenError) Kind() string { return KindParamsBroken }

// ScriptMissingError reports a library that declares upgrade hooks while
// none are registered for it. Library is "name major.minor".
type ScriptMissingError struct {
	Library string
}

func (e *ScriptMissingError) Error() string {
	return fmt.Sprintf("upgrade script missing for %s", e.Library)
}

// Kind returns KindScriptMissing.
func (e *ScriptMissingError) Kind() string { return KindScriptMissing }

// HookError wraps the failure of a single upgrade hook.
type HookError struct {
	Library string
	Version Version
	// Panicked is set when the hook panicked instead of returning an error.
	Panicked bool
	Err      error
}

func (e *HookError) Error() string {
	verb := "failed"
	if e.Panicked {
		verb = "panicked"
	}
	return fmt.Sprintf("upgrade hook %s %s: %v", FormatLibrary(e.Library, e.Version), verb, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Kind returns KindHookFailed.
func (e *HookError) Kind() string { return KindHookFailed }

// VersionError reports a malformed "major.minor" string.
type VersionError struct {
	Input string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("invalid version %q: want <major>.<minor>", e.Input)
}

// Kind returns KindBadVersion.
func (e *VersionError) Kind() string { return KindBadVersion }

// ErrorKind returns the kind of the first typed error in err's chain, or ""
// for errors that carry no kind (loader failures and the like).
func ErrorKind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}
