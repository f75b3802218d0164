package core

import (
	"context"
	"log/slog"
)

// LibraryLoader resolves the schema of a library version.
// Errors are forwarded to the caller of the upgrade unchanged.
type LibraryLoader interface {
	LoadLibrary(ctx context.Context, name string, version Version) (*Library, error)
}

// LibraryLoaderFunc adapts a function to LibraryLoader.
type LibraryLoaderFunc func(ctx context.Context, name string, version Version) (*Library, error)

// LoadLibrary calls f.
func (f LibraryLoaderFunc) LoadLibrary(ctx context.Context, name string, version Version) (*Library, error) {
	return f(ctx, name, version)
}

// Hook transforms content parameters across one minor version boundary.
// A hook may return an error or panic; both abort the upgrade.
type Hook interface {
	Upgrade(ctx context.Context, params any) (any, error)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, params any) (any, error)

// Upgrade calls f.
func (f HookFunc) Upgrade(ctx context.Context, params any) (any, error) {
	return f(ctx, params)
}

// LibraryHooks indexes the hooks of one library by major, then minor version.
type LibraryHooks map[int]map[int]Hook

// HookSource looks up the registered hooks of a library.
type HookSource interface {
	Hooks(library string) (LibraryHooks, bool)
}

// Diagnostic describes a failed upgrade hook.
type Diagnostic struct {
	Library string
	Version Version
	// Panicked is set when the hook panicked rather than returning an error.
	Panicked bool
	Message  string
	Name     string
	Stack    string
}

// DiagnosticSink receives diagnostics. It never influences control flow.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// LogSink reports diagnostics to a structured logger at error level.
type LogSink struct {
	Logger *slog.Logger
}

// Report logs d.
func (s LogSink) Report(d Diagnostic) {
	if s.Logger == nil {
		return
	}
	msg := "upgrade hook failed"
	if d.Panicked {
		msg = "upgrade hook panicked"
	}
	s.Logger.Error(msg,
		"library", FormatLibrary(d.Library, d.Version),
		"name", d.Name,
		"message", d.Message,
		"stack", d.Stack,
	)
}
