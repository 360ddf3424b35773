package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionInfo is a structured engine version. Patch is nil when the source
// string only carried major.minor.
type VersionInfo struct {
	Major int  `json:"major"`
	Minor int  `json:"minor"`
	Patch *int `json:"patch,omitempty"`
}

// String renders the version the way it was parsed
func (v VersionInfo) String() string {
	if v.Patch == nil {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, *v.Patch)
}

// ParseVersion parses "major.minor" or "major.minor.patch".
// A nil input yields a nil result and no error.
func ParseVersion(s *string) (*VersionInfo, error) {
	if s == nil {
		return nil, nil
	}
	return ParseVersionString(*s)
}

// ParseVersionString is ParseVersion for a plain string. Pre-release suffixes
// on the last component ("8.0.0-rc1", "2.11.0-SNAPSHOT") are ignored.
func ParseVersionString(s string) (*VersionInfo, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		if i == len(parts)-1 {
			if idx := strings.IndexAny(p, "-+"); idx > 0 {
				p = p[:idx]
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q: component %q is not a number", s, parts[i])
		}
		nums[i] = n
	}

	v := &VersionInfo{Major: nums[0], Minor: nums[1]}
	if len(nums) == 3 {
		patch := nums[2]
		v.Patch = &patch
	}
	return v, nil
}

func (v VersionInfo) patchOrZero() int {
	if v.Patch == nil {
		return 0
	}
	return *v.Patch
}

// Compare orders versions by major, minor, then patch (absent patch counts as 0).
// It returns a negative number, zero or a positive number.
func Compare(v1, v2 VersionInfo) int {
	if v1.Major != v2.Major {
		return v1.Major - v2.Major
	}
	if v1.Minor != v2.Minor {
		return v1.Minor - v2.Minor
	}
	return v1.patchOrZero() - v2.patchOrZero()
}

// GTE reports whether v >= other
func (v VersionInfo) GTE(other VersionInfo) bool {
	return Compare(v, other) >= 0
}

// LT reports whether v < other
func (v VersionInfo) LT(other VersionInfo) bool {
	return Compare(v, other) < 0
}
