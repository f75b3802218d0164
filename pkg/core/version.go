package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a library version made of a major and a minor number.
// Versions are plain values; copying one never aliases another.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses a version of the form "<major>.<minor>".
func ParseVersion(s string) (Version, error) {
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, &VersionError{Input: s}
	}
	major, err := parseVersionPart(majorStr)
	if err != nil {
		return Version{}, &VersionError{Input: s}
	}
	minor, err := parseVersionPart(minorStr)
	if err != nil {
		return Version{}, &VersionError{Input: s}
	}
	return Version{Major: major, Minor: minor}, nil
}

// MustParseVersion is like ParseVersion but panics on malformed input.
// Intended for tests and static tables.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseVersionPart(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty version part")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid version part %q", s)
		}
	}
	return strconv.Atoi(s)
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after other. Ordering is lexicographic on (Major, Minor).
func (v Version) Compare(other Version) int {
	switch {
	case v.Major < other.Major:
		return -1
	case v.Major > other.Major:
		return 1
	case v.Minor < other.Minor:
		return -1
	case v.Minor > other.Minor:
		return 1
	default:
		return 0
	}
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// String renders the version as "major.minor".
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}
