package quam

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/vk/squidquam/internal/refpath"
)

// Value is a field that holds a literal, a reference string, or nothing.
// References are kept verbatim and resolved on every Get.
type Value[T any] struct {
	val T
	ref string
	set bool
}

// literalHolder lets the engine look inside a Value without knowing T.
type literalHolder interface {
	literalAny() (any, bool)
	referenceString() string
}

// Lit returns a Value holding v. A string in the reference syntax makes a
// reference, as it would after a save and load.
func Lit[T any](v T) Value[T] {
	if ref, ok := referenceLiteral(v); ok {
		return Value[T]{ref: ref}
	}
	return Value[T]{val: v, set: true}
}

// Ref returns a Value pointing at ref.
func Ref[T any](ref string) Value[T] {
	return Value[T]{ref: ref}
}

// IsSet reports whether the value holds a literal or a reference.
func (v Value[T]) IsSet() bool { return v.set || v.ref != "" }

// IsRef reports whether the value holds a reference.
func (v Value[T]) IsRef() bool { return v.ref != "" }

// Reference returns the reference string, or "".
func (v Value[T]) Reference() string { return v.ref }

// Literal returns the stored literal without resolving anything.
func (v Value[T]) Literal() (T, bool) { return v.val, v.set }

// Set stores x like Lit, dropping what was there.
func (v *Value[T]) Set(x T) { *v = Lit(x) }

// SetRef stores a reference, dropping any literal.
func (v *Value[T]) SetRef(ref string) { *v = Value[T]{ref: ref} }

// Clear unsets the value.
func (v *Value[T]) Clear() { *v = Value[T]{} }

// Get returns the literal or resolves the reference relative to owner, the
// component holding the field.
func (v Value[T]) Get(owner Component) (T, error) {
	if v.ref != "" {
		x, err := Resolve(owner, v.ref)
		if err != nil {
			var zero T
			return zero, err
		}
		return As[T](x)
	}
	if !v.set {
		var zero T
		return zero, ErrNotSet
	}
	return v.val, nil
}

// Lookup is Get for optional fields: ok is false when the value is unset or
// resolves to nothing.
func (v Value[T]) Lookup(owner Component) (T, bool, error) {
	x, err := v.Get(owner)
	if errors.Is(err, ErrNotSet) {
		return x, false, nil
	}
	if err != nil {
		return x, false, err
	}
	return x, true, nil
}

func (v Value[T]) literalAny() (any, bool) { return v.val, v.set }

// referenceLiteral reports whether v is a string in the reference syntax.
// Such strings always read back as references from JSON.
func referenceLiteral(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || !refpath.IsReference(s) {
		return "", false
	}
	return s, true
}
func (v Value[T]) referenceString() string { return v.ref }

// MarshalJSON writes references as strings, unset values as null and
// components in interface-typed values with their class tag.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	return encodeEntry(v.val, v.ref, isInterface[T]())
}

// UnmarshalJSON treats strings with the reference syntax as references.
func (v *Value[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value[T]{}
		return nil
	}
	val, ref, err := decodeEntry[T](b)
	if err != nil {
		return err
	}
	if ref != "" {
		*v = Value[T]{ref: ref}
		return nil
	}
	*v = Value[T]{val: val, set: true}
	return nil
}

// As converts a resolved value to T. Numeric kinds are converted; typed nil
// pointers count as unset.
func As[T any](x any) (T, error) {
	var zero T
	if isNil(x) {
		return zero, ErrNotSet
	}
	if t, ok := x.(T); ok {
		return t, nil
	}

	target := typeOf[T]()
	rv := reflect.ValueOf(x)
	if isNumeric(rv.Kind()) && isNumeric(target.Kind()) {
		return rv.Convert(target).Interface().(T), nil
	}
	return zero, fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, x, target)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func isInterface[T any]() bool {
	return typeOf[T]().Kind() == reflect.Interface
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var _ json.Marshaler = Value[int]{}
