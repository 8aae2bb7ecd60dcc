// internal/refpath/reference.go
package refpath

import (
	"reflect"
	"strings"
)

// String serializes the Reference into its canonical form.
func (r *Reference) String() string {
	if r == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(Sentinel)
	switch {
	case r.Absolute:
		sb.WriteRune('/')
	case r.Up == 0:
		sb.WriteString("./")
	default:
		sb.WriteString(strings.Repeat("../", r.Up))
	}
	sb.WriteString(strings.Join(r.Path, "/"))

	return sb.String()
}

// Equal checks for deep equality between two Reference pointers.
func (r *Reference) Equal(other *Reference) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Absolute != other.Absolute || r.Up != other.Up || len(r.Path) != len(other.Path) {
		return false
	}
	return len(r.Path) == 0 || reflect.DeepEqual(r.Path, other.Path)
}

// Child returns a copy of r with name appended to the path.
func (r *Reference) Child(name string) *Reference {
	path := make([]string, 0, len(r.Path)+1)
	path = append(path, r.Path...)
	return &Reference{Absolute: r.Absolute, Up: r.Up, Path: append(path, name)}
}

// Absolute builds an absolute reference from path segments.
func Absolute(path ...string) *Reference {
	return &Reference{Absolute: true, Path: append([]string(nil), path...)}
}

// Relative builds a reference that walks up `up` parents, then down path.
func Relative(up int, path ...string) *Reference {
	return &Reference{Up: up, Path: append([]string(nil), path...)}
}
