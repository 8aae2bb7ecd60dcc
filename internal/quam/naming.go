package quam

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/vk/squidquam/internal/refpath"
)

// KeyFromParentDict returns the key under which c is stored in its parent
// Dict.
func KeyFromParentDict(c Component) (string, error) {
	parent := ParentOf(c)
	if parent == nil {
		return "", ErrNoParent
	}
	if !isDict(parent) {
		return "", fmt.Errorf("%w: %T is not in a dict but in %T", ErrWrongParent, c, parent)
	}
	key, ok := parent.(container).nameOf(c)
	if !ok {
		return "", fmt.Errorf("%w: %T not found in its parent dict", ErrUnresolvable, c)
	}
	return key, nil
}

// IndexFromParentList returns the position of c in its parent List.
func IndexFromParentList(c Component) (int, error) {
	parent := ParentOf(c)
	if parent == nil {
		return 0, ErrNoParent
	}
	ct, ok := parent.(container)
	if !ok || isDict(parent) {
		return 0, fmt.Errorf("%w: %T is not in a list but in %T", ErrWrongParent, c, parent)
	}
	name, ok := ct.nameOf(c)
	if !ok {
		return 0, fmt.Errorf("%w: %T not found in its parent list", ErrUnresolvable, c)
	}
	return strconv.Atoi(name)
}

// NameFromParentComponent returns the json name of the field of the parent
// struct component holding c.
func NameFromParentComponent(c Component) (string, error) {
	parent := ParentOf(c)
	if parent == nil {
		return "", ErrNoParent
	}
	if _, ok := parent.(container); ok {
		return "", fmt.Errorf("%w: %T is held by container %T", ErrWrongParent, c, parent)
	}

	var name string
	walkFieldsOf(parent, func(n string, child Component) bool {
		if Same(child, c) {
			name = n
			return false
		}
		return true
	})
	if name == "" {
		return "", fmt.Errorf("%w: %T not found in the fields of %T", ErrUnresolvable, c, parent)
	}
	return name, nil
}

// NameFromParent returns the dict key, list index or field name under which
// c is attached.
func NameFromParent(c Component) (string, error) {
	parent := ParentOf(c)
	if parent == nil {
		return "", ErrNoParent
	}
	if ct, ok := parent.(container); ok {
		name, found := ct.nameOf(c)
		if !found {
			return "", fmt.Errorf("%w: %T not found in %T", ErrUnresolvable, c, parent)
		}
		return name, nil
	}
	return NameFromParentComponent(c)
}

// PathOf returns the segments leading from the root to c.
func PathOf(c Component) ([]string, error) {
	var segments []string
	for node := c; ParentOf(node) != nil; node = ParentOf(node) {
		name, err := NameFromParent(node)
		if err != nil {
			return nil, err
		}
		segments = append(segments, name)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments, nil
}

// ReferenceOf returns the absolute reference of c, or of one of its
// attributes when attr is given.
func ReferenceOf(c Component, attr ...string) (string, error) {
	path, err := PathOf(c)
	if err != nil {
		return "", err
	}
	return refpath.Absolute(append(path, attr...)...).String(), nil
}

// MustReferenceOf is ReferenceOf for components known to be attached.
func MustReferenceOf(c Component, attr ...string) string {
	ref, err := ReferenceOf(c, attr...)
	if err != nil {
		panic(err)
	}
	return ref
}

// FormatName joins non-empty parts with dots, the element naming scheme.
func FormatName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

func isDict(c Component) bool {
	_, ok := c.(interface{ dictMarker() })
	return ok
}

func (d *Dict[T]) dictMarker() {}

func walkFieldsOf(c Component, fn func(name string, child Component) bool) {
	walkFields(reflect.ValueOf(c), func(_ reflect.StructField, name string, fv reflect.Value) bool {
		child, ok := componentIn(fv)
		if !ok {
			return true
		}
		return fn(name, child)
	})
}
