package upgrade

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/h5pup/pkg/core"
)

// RangeMode selects which registered hooks fall inside an upgrade range.
// Both modes agree whenever the range stays within one major version.
type RangeMode int

const (
	// RangeStrict runs hook (M, m) iff from < (M, m) <= to, comparing
	// versions lexicographically.
	RangeStrict RangeMode = iota
	// RangeLegacy keeps majors in [from.Major, to.Major] and then compares
	// minor numbers against from.Minor and to.Minor only, whatever the
	// major. Ranges spanning several majors can skip or keep hooks that
	// RangeStrict would not.
	RangeLegacy
)

// ParseRangeMode parses "strict" or "legacy".
func ParseRangeMode(s string) (RangeMode, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return RangeStrict, nil
	case "legacy":
		return RangeLegacy, nil
	default:
		return RangeStrict, fmt.Errorf("unknown range mode %q (expected strict or legacy)", s)
	}
}

// String returns the mode name.
func (m RangeMode) String() string {
	if m == RangeLegacy {
		return "legacy"
	}
	return "strict"
}

func (m RangeMode) includesMajor(major int, from, to core.Version) bool {
	return major >= from.Major && major <= to.Major
}

func (m RangeMode) includes(v, from, to core.Version) bool {
	if m == RangeLegacy {
		return v.Minor > from.Minor && v.Minor <= to.Minor
	}
	return from.Less(v) && !to.Less(v)
}
