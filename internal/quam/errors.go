package quam

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvable is returned when a reference path does not lead anywhere.
	ErrUnresolvable = errors.New("quam: reference cannot be resolved")
	// ErrReferenceCycle is returned when following references does not terminate.
	ErrReferenceCycle = errors.New("quam: reference chain does not terminate")
	// ErrNoParent is returned when a component has to be located through a
	// parent it does not have.
	ErrNoParent = errors.New("quam: component has no parent")
	// ErrNotSet is returned when reading a value that holds neither a literal
	// nor a reference, or whose reference resolves to nothing.
	ErrNotSet = errors.New("quam: value is not set")
	// ErrTypeMismatch is returned when a resolved value cannot be used as the
	// requested type.
	ErrTypeMismatch = errors.New("quam: value has unexpected type")
	// ErrWrongParent is returned by the name-from-parent helpers when the
	// parent is not of the expected kind.
	ErrWrongParent = errors.New("quam: parent is not of the expected kind")
	// ErrUnknownClass is returned when decoding a class tag nobody registered.
	ErrUnknownClass = errors.New("quam: unknown component class")
)

// ResolveError reports which segment of a reference failed to resolve.
type ResolveError struct {
	Ref     string
	Segment string
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %q at %q: %v", e.Ref, e.Segment, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
