package core

import "strings"

// FieldKind discriminates the field descriptor variants the upgrade walker
// understands. Every declared type the walker does not descend into maps to
// FieldKindOther.
type FieldKind int

// Field kinds.
const (
	// FieldKindOther is an opaque leaf (text, number, image, ...).
	FieldKindOther FieldKind = iota
	// FieldKindLibrary is a slot holding one embedded sub-content instance.
	FieldKindLibrary
	// FieldKindGroup is a nested record of sub-fields.
	FieldKindGroup
	// FieldKindList is a homogeneous sequence of items.
	FieldKindList
)

// String returns the semantics type name for the kind.
func (k FieldKind) String() string {
	switch k {
	case FieldKindLibrary:
		return "library"
	case FieldKindGroup:
		return "group"
	case FieldKindList:
		return "list"
	default:
		return "other"
	}
}

// ParseFieldKind maps a semantics "type" string to its kind.
func ParseFieldKind(s string) FieldKind {
	switch s {
	case "library":
		return FieldKindLibrary
	case "group":
		return FieldKindGroup
	case "list":
		return FieldKindList
	default:
		return FieldKindOther
	}
}

// Field describes one entry of a library's semantics.
//
// Which members are meaningful depends on Kind:
//   - FieldKindLibrary: Options ("name major.minor" strings)
//   - FieldKindGroup: Fields
//   - FieldKindList: Item
type Field struct {
	Name string
	Kind FieldKind
	// Type is the declared type as written in the semantics file.
	Type    string
	Options []string
	Fields  []Field
	Item    *Field
}

// Library is the schema of one library version as seen by the upgrader.
type Library struct {
	Name             string
	Version          Version
	Semantics        []Field
	HasUpgradeScript bool
}

// String returns "name major.minor".
func (l *Library) String() string {
	return FormatLibrary(l.Name, l.Version)
}

// FormatLibrary renders a library identity string such as "H5P.Text 1.1".
func FormatLibrary(name string, v Version) string {
	return name + " " + v.String()
}

// SplitLibrary splits a library identity string into name and version text.
// Only the first two space separated parts are considered; the version text
// is empty when the string has no space.
func SplitLibrary(s string) (name, version string) {
	parts := strings.SplitN(s, " ", 3)
	name = parts[0]
	if len(parts) > 1 {
		version = parts[1]
	}
	return name, version
}
