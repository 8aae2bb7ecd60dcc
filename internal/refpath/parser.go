// internal/refpath/parser.go
package refpath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotReference is returned when a string lacks the `#` sentinel.
var ErrNotReference = errors.New("refpath: string is not a reference")

// segmentRegex accepts dict keys and attribute names such as `x90`,
// `-x90_drag_gaussian`, `Q_int` or list indices such as `0`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+\-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return true
}

// IsReference reports whether s uses the reference syntax.
func IsReference(s string) bool {
	return strings.HasPrefix(s, Sentinel+"/") || strings.HasPrefix(s, Sentinel+"./") || strings.HasPrefix(s, Sentinel+"../")
}

// Parse creates a Reference by parsing its string form.
func Parse(raw string) (*Reference, error) {
	if raw == "" {
		return nil, fmt.Errorf("reference cannot be empty")
	}
	if !IsReference(raw) {
		return nil, fmt.Errorf("%w: %q", ErrNotReference, raw)
	}

	ref := &Reference{}
	rest := strings.TrimPrefix(raw, Sentinel)

	switch {
	case strings.HasPrefix(rest, "/"):
		ref.Absolute = true
		rest = rest[1:]
	case strings.HasPrefix(rest, "./"):
		rest = rest[2:]
	default:
		for strings.HasPrefix(rest, "../") {
			ref.Up++
			rest = rest[3:]
		}
	}

	// A trailing slash is tolerated so `#./` and `#/` address the start itself.
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return ref, nil
	}

	for _, segment := range strings.Split(rest, "/") {
		if segment == "" {
			return nil, fmt.Errorf("reference %q contains empty segment", raw)
		}
		if !isValidSegmentName(segment) {
			return nil, fmt.Errorf("invalid segment %q in reference %q", segment, raw)
		}
		if !segmentRegex.MatchString(segment) {
			return nil, fmt.Errorf("invalid path segment format: %q", segment)
		}
		ref.Path = append(ref.Path, segment)
	}

	return ref, nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// package level defaults.
func MustParse(raw string) *Reference {
	ref, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return ref
}
