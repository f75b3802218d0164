// Package registry provides the upgrade hook registry.
// It maps a library name to its hooks, indexed by the major and minor
// version each hook upgrades content to.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/h5pup/pkg/core"
)

// HookRegistry stores upgrade hooks by library, major and minor version.
// It is populated before upgrades run; lookups hand out copies so the
// engine never sees later registrations mid-upgrade.
type HookRegistry struct {
	mu sync.RWMutex

	// byLibrary maps "H5P.Foo" → major → minor → hook
	byLibrary map[string]core.LibraryHooks

	// sources records where each library's hooks came from (script path, "go", ...)
	sources map[string]string
}

// NewHookRegistry creates a new empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		byLibrary: make(map[string]core.LibraryHooks),
		sources:   make(map[string]string),
	}
}

// Register adds the hook that upgrades library content to version v.
// Registering the same library version twice is an error.
func (r *HookRegistry) Register(library string, v core.Version, hook core.Hook) error {
	if hook == nil {
		return fmt.Errorf("nil hook for %s", core.FormatLibrary(library, v))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	majors := r.declare(library)
	minors, ok := majors[v.Major]
	if !ok {
		minors = make(map[int]core.Hook)
		majors[v.Major] = minors
	}
	if _, exists := minors[v.Minor]; exists {
		return fmt.Errorf("duplicate upgrade hook for %s", core.FormatLibrary(library, v))
	}
	minors[v.Minor] = hook
	return nil
}

// RegisterFunc is a convenience wrapper around Register for plain functions.
func (r *HookRegistry) RegisterFunc(library string, v core.Version, fn core.HookFunc) error {
	return r.Register(library, v, fn)
}

// Declare makes library known to the registry even before any hook is
// registered for it. An upgrade script with an empty upgrades table still
// declares its library.
func (r *HookRegistry) Declare(library string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declare(library)
}

func (r *HookRegistry) declare(library string) core.LibraryHooks {
	majors, ok := r.byLibrary[library]
	if !ok {
		majors = make(core.LibraryHooks)
		r.byLibrary[library] = majors
	}
	return majors
}

// SetSource records where the hooks of library were loaded from and
// declares the library.
func (r *HookRegistry) SetSource(library, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declare(library)
	r.sources[library] = source
}

// Source returns where the hooks of library were loaded from.
func (r *HookRegistry) Source(library string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[library]
}

// Hooks returns a copy of the hooks registered for library.
// A library is known once it was declared or had a hook registered; a
// known library may have no hooks at all.
func (r *HookRegistry) Hooks(library string) (core.LibraryHooks, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	majors, ok := r.byLibrary[library]
	if !ok {
		return nil, false
	}

	out := make(core.LibraryHooks, len(majors))
	for major, minors := range majors {
		m := make(map[int]core.Hook, len(minors))
		for minor, hook := range minors {
			m[minor] = hook
		}
		out[major] = m
	}
	return out, true
}

// Versions returns the versions library has hooks for, ascending.
func (r *HookRegistry) Versions(library string) []core.Version {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var versions []core.Version
	for major, minors := range r.byLibrary[library] {
		for minor := range minors {
			versions = append(versions, core.Version{Major: major, Minor: minor})
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
	return versions
}

// Libraries returns the names of all known libraries, sorted.
func (r *HookRegistry) Libraries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byLibrary))
	for name := range r.byLibrary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered hooks across all libraries.
func (r *HookRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, majors := range r.byLibrary {
		for _, minors := range majors {
			n += len(minors)
		}
	}
	return n
}
