package upgrade

import (
	"context"
	"testing"

	"github.com/leapstack-labs/h5pup/internal/registry"
	"github.com/leapstack-labs/h5pup/internal/testutil"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/leapstack-labs/h5pup/pkg/params"
	"github.com/stretchr/testify/require"
)

// fakeLoader serves libraries from memory and records every lookup.
// Unknown libraries load with empty semantics.
type fakeLoader struct {
	libs  map[string]*core.Library
	fail  map[string]error
	calls []string
}

func newFakeLoader(libs ...*core.Library) *fakeLoader {
	l := &fakeLoader{
		libs: make(map[string]*core.Library),
		fail: make(map[string]error),
	}
	for _, lib := range libs {
		l.libs[lib.String()] = lib
	}
	return l
}

func (l *fakeLoader) LoadLibrary(_ context.Context, name string, v core.Version) (*core.Library, error) {
	key := core.FormatLibrary(name, v)
	l.calls = append(l.calls, key)
	if err := l.fail[key]; err != nil {
		return nil, err
	}
	if lib, ok := l.libs[key]; ok {
		return lib, nil
	}
	return &core.Library{Name: name, Version: v}, nil
}

func lib(name, version string, fields ...core.Field) *core.Library {
	return &core.Library{Name: name, Version: core.MustParseVersion(version), Semantics: fields}
}

func libraryField(name string, options ...string) core.Field {
	return core.Field{Name: name, Kind: core.FieldKindLibrary, Type: "library", Options: options}
}

func groupField(name string, fields ...core.Field) core.Field {
	return core.Field{Name: name, Kind: core.FieldKindGroup, Type: "group", Fields: fields}
}

func listField(name string, item core.Field) core.Field {
	return core.Field{Name: name, Kind: core.FieldKindList, Type: "list", Item: &item}
}

func textField(name string) core.Field {
	return core.Field{Name: name, Kind: core.FieldKindOther, Type: "text"}
}

// trailHook appends tag to the "trail" list of the params it receives and
// to log, so tests can check which hooks ran and in which order.
func trailHook(tag string, log *[]string) core.HookFunc {
	return func(_ context.Context, p any) (any, error) {
		*log = append(*log, tag)
		obj := p.(*params.Object).Clone()
		trail, _ := obj.Get("trail")
		list, _ := trail.([]any)
		obj.Set("trail", append(append([]any{}, list...), tag))
		return obj, nil
	}
}

func newUpgrader(t *testing.T, loader core.LibraryLoader, hooks *registry.HookRegistry, opts ...func(*Config)) *Upgrader {
	t.Helper()
	cfg := Config{
		Loader: loader,
		Hooks:  hooks,
		Logger: testutil.NewTestLogger(t),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	u, err := New(cfg)
	require.NoError(t, err)
	return u
}

func decode(t *testing.T, s string) *params.Object {
	t.Helper()
	v, err := params.Decode([]byte(s))
	require.NoError(t, err)
	obj, ok := v.(*params.Object)
	require.True(t, ok, "expected object")
	return obj
}

func encode(t *testing.T, v any) string {
	t.Helper()
	out, err := params.Encode(v)
	require.NoError(t, err)
	return string(out)
}
