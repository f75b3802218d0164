// Package starlark runs library upgrade hooks written in Starlark.
//
// A library ships its hooks in an upgrades.star file that defines a global
// "upgrades" dict mapping major and minor versions to functions:
//
//	def _to_1_2(params):
//	    params["title"] = params.pop("heading", "")
//	    return params
//
//	upgrades = {
//	    1: {
//	        2: _to_1_2,
//	        3: {"contentUpgrade": _to_1_3},
//	    },
//	}
package starlark

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/h5pup/pkg/core"
	"github.com/leapstack-labs/h5pup/pkg/params"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// LibraryInfo describes the library a script belongs to.
// Exposed as the "library" global in upgrade scripts.
type LibraryInfo struct {
	Name    string
	Version core.Version
}

// ToStarlark converts LibraryInfo to a Starlark struct value.
func (l *LibraryInfo) ToStarlark() starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("library"), starlark.StringDict{
		"name":          starlark.String(l.Name),
		"major_version": starlark.MakeInt(l.Version.Major),
		"minor_version": starlark.MakeInt(l.Version.Minor),
		"version":       starlark.String(l.Version.String()),
	})
}

// GoToStarlark converts a parameter tree to a Starlark value.
// Objects become dicts in key order, numbers become int or float.
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case bool:
		return starlark.Bool(val), nil

	case json.Number:
		return numberToStarlark(val)

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case *params.Object:
		dict := starlark.NewDict(val.Len())
		for _, k := range val.Keys() {
			item, _ := val.Get(k)
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dict := starlark.NewDict(len(val))
		for _, k := range keys {
			sv, err := GoToStarlark(val[k])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func numberToStarlark(n json.Number) (starlark.Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return starlark.MakeBigInt(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return starlark.Float(f), nil
}

// ToGo converts a Starlark value back to a parameter tree.
// Dicts become *params.Object in insertion order and numbers json.Number.
// Values with no JSON form (functions, sets, non-finite floats) are errors.
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		return json.Number(val.String()), nil

	case starlark.Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("float %s has no JSON form", val.String())
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Dict:
		result := params.NewObject()
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", string(key), err)
			}
			result.Set(string(key), gv)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}
