package starlark

import (
	starlarkjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Predeclared returns the globals available to upgrade scripts:
// library, json and struct.
func Predeclared(info *LibraryInfo) starlark.StringDict {
	globals := starlark.StringDict{
		"json":   starlarkjson.Module,
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}

	if info != nil {
		globals["library"] = info.ToStarlark()
	}

	return globals
}
