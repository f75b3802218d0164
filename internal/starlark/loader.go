package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/h5pup/internal/library"
	"github.com/leapstack-labs/h5pup/internal/registry"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"go.starlark.net/starlark"
)

// UpgradesGlobal is the global an upgrade script must define.
const UpgradesGlobal = "upgrades"

// wrapperKey names the function inside a wrapped hook entry.
const wrapperKey = "contentUpgrade"

// Loader loads upgrade scripts of installed libraries.
type Loader struct {
	libraries *library.FSLoader
	pool      *ThreadPool
	logger    *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithThreadPool sets the pool hook calls take their threads from.
func WithThreadPool(pool *ThreadPool) Option {
	return func(l *Loader) {
		l.pool = pool
	}
}

// NewLoader creates a script loader for the libraries directory dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.pool == nil {
		l.pool = NewThreadPool(0, l.logger)
	}
	l.libraries = library.NewFSLoader(dir, library.WithLogger(l.logger))
	return l
}

// LoadRegistry registers the upgrade hooks of every library installed in
// dir into reg. Only the script of a library's highest installed version
// that has one is used; it carries the hooks for every older version.
func LoadRegistry(dir string, reg *registry.HookRegistry, opts ...Option) error {
	_, err := NewLoader(dir, opts...).LoadInto(reg)
	return err
}

// LoadInto registers the hooks of every installed library into reg and
// returns the number of scripts loaded.
func (l *Loader) LoadInto(reg *registry.HookRegistry) (int, error) {
	installed, err := l.libraries.List()
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, lib := range library.LatestWithScript(installed) {
		hooks, err := l.LoadFile(lib.Script, &LibraryInfo{Name: lib.Name, Version: lib.Version})
		if err != nil {
			return loaded, err
		}
		for major, minors := range hooks {
			for minor, hook := range minors {
				if err := reg.Register(lib.Name, core.Version{Major: major, Minor: minor}, hook); err != nil {
					return loaded, fmt.Errorf("%s: %w", lib.Script, err)
				}
			}
		}
		reg.SetSource(lib.Name, lib.Script)
		loaded++

		l.logger.Debug("loaded upgrade script", "library", lib.String(), "path", lib.Script)
	}
	return loaded, nil
}

// LoadFile executes one upgrade script and returns its hooks.
func (l *Loader) LoadFile(path string, info *LibraryInfo) (core.LibraryHooks, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the libraries directory listing
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: fmt.Sprintf("failed to read file: %v", err),
		}
	}
	return l.Load(path, content, info)
}

// Load executes script source and returns its hooks. filename is used in
// error messages and backtraces.
func (l *Loader) Load(filename string, src []byte, info *LibraryInfo) (core.LibraryHooks, error) {
	thread := &starlark.Thread{
		Name: fmt.Sprintf("load:%s", filepath.Base(filename)),
		Print: func(_ *starlark.Thread, msg string) {
			l.logger.Debug("script print", "file", filename, "msg", msg)
		},
	}

	globals, err := starlark.ExecFile(thread, filename, src, Predeclared(info)) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{
			File:    filename,
			Message: fmt.Sprintf("Starlark execution error: %v", err),
		}
	}

	upgrades, ok := globals[UpgradesGlobal]
	if !ok {
		return nil, &LoadError{File: filename, Message: fmt.Sprintf("script does not define %q", UpgradesGlobal)}
	}
	majors, ok := upgrades.(*starlark.Dict)
	if !ok {
		return nil, &LoadError{
			File:    filename,
			Message: fmt.Sprintf("%q must be a dict, got %s", UpgradesGlobal, upgrades.Type()),
		}
	}

	name := ""
	if info != nil {
		name = info.Name
	}

	hooks := make(core.LibraryHooks)
	for _, item := range majors.Items() {
		major, err := versionKey(item[0])
		if err != nil {
			return nil, &LoadError{File: filename, Message: fmt.Sprintf("major version: %v", err)}
		}
		minors, ok := item[1].(*starlark.Dict)
		if !ok {
			return nil, &LoadError{
				File:    filename,
				Message: fmt.Sprintf("upgrades[%d] must be a dict, got %s", major, item[1].Type()),
			}
		}

		byMinor := make(map[int]core.Hook, minors.Len())
		for _, entry := range minors.Items() {
			minor, err := versionKey(entry[0])
			if err != nil {
				return nil, &LoadError{File: filename, Message: fmt.Sprintf("upgrades[%d]: minor version: %v", major, err)}
			}
			fn, err := hookFunc(entry[1])
			if err != nil {
				return nil, &LoadError{File: filename, Message: fmt.Sprintf("upgrades[%d][%d]: %v", major, minor, err)}
			}
			v := core.Version{Major: major, Minor: minor}
			byMinor[minor] = NewScriptHook(name, v, fn, l.pool)
		}
		hooks[major] = byMinor
	}

	return hooks, nil
}

// versionKey accepts non-negative int keys.
func versionKey(v starlark.Value) (int, error) {
	i, ok := v.(starlark.Int)
	if !ok {
		return 0, fmt.Errorf("key must be an int, got %s", v.Type())
	}
	n, ok := i.Int64()
	if !ok || n < 0 || n > int64(^uint32(0)>>1) {
		return 0, fmt.Errorf("key %s out of range", i.String())
	}
	return int(n), nil
}

// hookFunc accepts either a callable or a {"contentUpgrade": callable} dict.
func hookFunc(v starlark.Value) (starlark.Callable, error) {
	switch val := v.(type) {
	case starlark.Callable:
		return val, nil
	case *starlark.Dict:
		inner, found, err := val.Get(starlark.String(wrapperKey))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("dict entry has no %q function", wrapperKey)
		}
		fn, ok := inner.(starlark.Callable)
		if !ok {
			return nil, fmt.Errorf("%q must be callable, got %s", wrapperKey, inner.Type())
		}
		return fn, nil
	default:
		return nil, fmt.Errorf("hook must be callable, got %s", v.Type())
	}
}

// LoadError represents an error loading an upgrade script.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
