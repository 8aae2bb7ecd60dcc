// internal/refpath/types.go
package refpath

// Sentinel is the prefix that marks a string as a reference.
const Sentinel = "#"

// Reference is the structured form of a reference string.
type Reference struct {
	// Absolute references are walked from the tree root.
	Absolute bool
	// Up is the number of `../` hops taken before descending. It is always
	// zero for absolute references.
	Up int
	// Path holds the attribute names, dict keys or list indices to descend
	// through, in order. An empty path refers to the start component itself.
	Path []string
}

// IsSelf reports whether the reference points at the component it starts
// from, without descending.
func (r *Reference) IsSelf() bool {
	return r != nil && len(r.Path) == 0
}

// Last returns the final path segment, or "" for a self reference.
func (r *Reference) Last() string {
	if r == nil || len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}
