package starlark

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/h5pup/pkg/core"
	"go.starlark.net/starlark"
)

// ScriptHook adapts a Starlark function to core.Hook. The function is called
// with the content parameters as a dict and must return the new parameters.
//
// Script errors, including fail(), come back as *starlark.EvalError, whose
// Backtrace ends up in the hook failure diagnostic.
type ScriptHook struct {
	Library string
	Version core.Version
	Fn      starlark.Callable

	pool *ThreadPool
}

// NewScriptHook creates a hook that runs fn on threads from pool.
func NewScriptHook(library string, v core.Version, fn starlark.Callable, pool *ThreadPool) *ScriptHook {
	if pool == nil {
		pool = NewThreadPool(1, nil)
	}
	return &ScriptHook{Library: library, Version: v, Fn: fn, pool: pool}
}

// Upgrade implements core.Hook.
func (h *ScriptHook) Upgrade(ctx context.Context, p any) (any, error) {
	arg, err := GoToStarlark(p)
	if err != nil {
		return nil, fmt.Errorf("failed to convert parameters: %w", err)
	}

	thread := h.pool.Get(fmt.Sprintf("upgrade:%s", core.FormatLibrary(h.Library, h.Version)))
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})

	res, err := starlark.Call(thread, h.Fn, starlark.Tuple{arg}, nil)

	if stop() {
		h.pool.Put(thread)
	}
	if err != nil {
		return nil, err
	}

	out, err := ToGo(res)
	if err != nil {
		return nil, fmt.Errorf("%s returned invalid parameters: %w", h.Fn.Name(), err)
	}
	return out, nil
}
