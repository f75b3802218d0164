package upgrade

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/leapstack-labs/h5pup/internal/serial"
	"github.com/leapstack-labs/h5pup/pkg/core"
)

// dispatchHooks runs the hooks of lib that fall inside (from, to], in
// ascending (major, minor) order, threading params through each of them.
func (r *run) dispatchHooks(lib *core.Library, from, to core.Version, p any, done func(any, error)) {
	hooks, ok := r.hooks.Hooks(lib.Name)
	if !ok {
		if lib.HasUpgradeScript {
			done(nil, &core.ScriptMissingError{Library: core.FormatLibrary(lib.Name, to)})
			return
		}
		// Nothing to upgrade at this level
		done(p, nil)
		return
	}

	serial.Each(r.loop, serial.Sorted(hooks), func(major int, minors map[int]core.Hook, nextMajor func(error)) {
		if !r.rangeMode.includesMajor(major, from, to) {
			nextMajor(nil)
			return
		}

		serial.Each(r.loop, serial.Sorted(minors), func(minor int, hook core.Hook, nextMinor func(error)) {
			v := core.Version{Major: major, Minor: minor}
			if !r.rangeMode.includes(v, from, to) {
				nextMinor(nil)
				return
			}

			upgraded, err := r.callHook(lib.Name, v, hook, p)
			if err != nil {
				nextMinor(err)
				return
			}
			p = upgraded
			nextMinor(nil)
		}, nextMajor)
	}, func(err error) {
		if err != nil {
			done(nil, err)
			return
		}
		done(p, nil)
	})
}

// callHook runs a single hook. Returned errors and panics both come back as
// a *core.HookError and are reported to the diagnostic sink once.
func (r *run) callHook(library string, v core.Version, hook core.Hook, p any) (out any, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		cause, ok := rec.(error)
		if !ok {
			cause = fmt.Errorf("%v", rec)
		}
		r.sink.Report(core.Diagnostic{
			Library:  library,
			Version:  v,
			Panicked: true,
			Message:  cause.Error(),
			Name:     fmt.Sprintf("%T", rec),
			Stack:    string(debug.Stack()),
		})
		out, err = nil, &core.HookError{Library: library, Version: v, Panicked: true, Err: cause}
	}()

	r.logger.Debug("running upgrade hook", "library", library, "version", v.String())

	out, err = hook.Upgrade(r.ctx, p)
	if err != nil {
		r.sink.Report(core.Diagnostic{
			Library: library,
			Version: v,
			Message: err.Error(),
			Name:    fmt.Sprintf("%T", err),
			Stack:   stackOf(err),
		})
		return nil, &core.HookError{Library: library, Version: v, Err: err}
	}
	return out, nil
}

// stackOf returns the script backtrace of errors that carry one.
func stackOf(err error) string {
	var bt interface{ Backtrace() string }
	if errors.As(err, &bt) {
		return bt.Backtrace()
	}
	return ""
}
