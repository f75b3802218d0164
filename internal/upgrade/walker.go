package upgrade

import (
	"fmt"

	"github.com/leapstack-labs/h5pup/internal/serial"
	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/leapstack-labs/h5pup/pkg/params"
)

// fieldDone receives the outcome of walking one field. changed is false when
// the caller should keep the value it already has.
type fieldDone func(v any, changed bool, err error)

// walkField looks for embedded sub-content below a field's value and
// upgrades it. Values are never modified in place; changed subtrees are
// returned as copies.
func (r *run) walkField(field core.Field, v any, present bool, done fieldDone) {
	if !present || v == nil {
		done(nil, false, nil)
		return
	}

	switch field.Kind {
	case core.FieldKindLibrary:
		r.walkLibrary(field, v, done)

	case core.FieldKindGroup:
		if len(field.Fields) == 1 {
			// Single-field groups are stored without the wrapping object
			r.loop.Post(func() {
				r.walkField(field.Fields[0], v, true, done)
			})
			return
		}
		r.walkGroup(field, v, done)

	case core.FieldKindList:
		r.walkList(field, v, done)

	default:
		done(nil, false, nil)
	}
}

// walkLibrary upgrades the sub-content held by a library field when one of
// the field's options offers a newer version of the same library.
func (r *run) walkLibrary(field core.Field, v any, done fieldDone) {
	obj, ok := v.(*params.Object)
	if !ok {
		done(nil, false, nil)
		return
	}
	libVal, _ := obj.Get("library")
	identity, ok := libVal.(string)
	if !ok {
		done(nil, false, nil)
		return
	}
	nested, ok := obj.Get("params")
	if !ok {
		done(nil, false, nil)
		return
	}

	usedName, usedVersion := core.SplitLibrary(identity)
	for _, option := range field.Options {
		name, version := core.SplitLibrary(option)
		if name != usedName {
			continue
		}
		if version == usedVersion {
			done(nil, false, nil)
			return
		}

		used, err := core.ParseVersion(usedVersion)
		if err != nil {
			done(nil, false, fmt.Errorf("field %q: %w", field.Name, err))
			return
		}
		available, err := core.ParseVersion(version)
		if err != nil {
			done(nil, false, fmt.Errorf("field %q option %q: %w", field.Name, option, err))
			return
		}
		if !used.Less(available) {
			// Never downgrade
			done(nil, false, nil)
			return
		}

		r.upgrade(name, used, available, nested, func(upgraded any, err error) {
			if err != nil {
				done(nil, false, err)
				return
			}
			out := obj.Clone()
			out.Set("library", core.FormatLibrary(name, available))
			out.Set("params", upgraded)
			done(out, true, nil)
		})
		return
	}

	// The library is no longer offered by this field; leave it alone
	done(nil, false, nil)
}

// walkGroup walks each sub-field of a multi-field group in declared order.
func (r *run) walkGroup(field core.Field, v any, done fieldDone) {
	obj, ok := v.(*params.Object)
	if !ok {
		done(nil, false, nil)
		return
	}

	out := obj
	serial.Each(r.loop, serial.Slice(field.Fields), func(_ int, sub core.Field, advance func(error)) {
		sv, present := out.Get(sub.Name)
		r.walkField(sub, sv, present, func(nv any, changed bool, err error) {
			if err == nil && changed {
				if out == obj {
					out = obj.Clone()
				}
				out.Set(sub.Name, nv)
			}
			advance(err)
		})
	}, func(err error) {
		if err != nil {
			done(nil, false, err)
			return
		}
		done(out, out != obj, nil)
	})
}

// walkList walks every item of a list with the list's item field.
func (r *run) walkList(field core.Field, v any, done fieldDone) {
	items, ok := v.([]any)
	if !ok || field.Item == nil {
		done(nil, false, nil)
		return
	}

	var out []any
	serial.Each(r.loop, serial.Slice(items), func(i int, item any, advance func(error)) {
		r.walkField(*field.Item, item, true, func(nv any, changed bool, err error) {
			if err == nil && changed {
				if out == nil {
					out = make([]any, len(items))
					copy(out, items)
				}
				out[i] = nv
			}
			advance(err)
		})
	}, func(err error) {
		if err != nil {
			done(nil, false, err)
			return
		}
		if out == nil {
			done(nil, false, nil)
			return
		}
		done(out, true, nil)
	})
}
