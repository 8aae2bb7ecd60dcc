package quam

import (
	"reflect"
	"strings"
)

// Component is implemented by every node of the tree. It can only be
// satisfied by embedding Base.
type Component interface {
	base() *Base
}

// Base carries the parent link of a component.
type Base struct {
	parent Component
	// resolving lists the attributes of this component whose resolution is
	// in progress.
	resolving []attrKey
}

type attrKey struct {
	holder Component
	name   string
}

func (b *Base) base() *Base { return b }

// Parent returns the component this one is attached to, or nil for a root
// or a detached component.
func (b *Base) Parent() Component { return b.parent }

// container is implemented by Dict and List.
type container interface {
	Component
	lookup(name string) (any, bool)
	childComponents() []Component
	nameOf(c Component) (string, bool)
}

// ParentOf returns the parent of c, or nil.
func ParentOf(c Component) Component {
	if isNil(c) {
		return nil
	}
	return c.base().parent
}

// RootOf walks parent links up to the top of the tree.
func RootOf(c Component) Component {
	for {
		p := ParentOf(c)
		if p == nil {
			return c
		}
		c = p
	}
}

// Same reports whether a and b are the same node. Components embedding other
// components share the embedded Base, so comparing Base pointers matches a
// component reached through either type.
func Same(a, b Component) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	return a.base() == b.base()
}

// Attach makes parent the owner of child and adopts child's subtree.
func Attach(parent, child Component) {
	if isNil(child) {
		return
	}
	child.base().parent = parent
	Adopt(child)
}

// Adopt points the parent link of every component below c at its owner.
func Adopt(c Component) {
	adopt(c, make(map[*Base]struct{}))
}

func adopt(parent Component, seen map[*Base]struct{}) {
	if isNil(parent) {
		return
	}
	pb := parent.base()
	if _, ok := seen[pb]; ok {
		return
	}
	seen[pb] = struct{}{}

	for _, child := range children(parent) {
		child.base().parent = parent
		adopt(child, seen)
	}
}

// Iterate calls fn for every non-container component below and including
// root, depth first in pre-order. Containers are traversed but not visited.
func Iterate(root Component, fn func(Component) error) error {
	return iterate(root, fn, make(map[*Base]struct{}))
}

func iterate(c Component, fn func(Component) error, seen map[*Base]struct{}) error {
	if isNil(c) {
		return nil
	}
	if _, ok := seen[c.base()]; ok {
		return nil
	}
	seen[c.base()] = struct{}{}

	if _, ok := c.(container); !ok {
		if err := fn(c); err != nil {
			return err
		}
	}
	for _, child := range children(c) {
		if err := iterate(child, fn, seen); err != nil {
			return err
		}
	}
	return nil
}

// children lists the components directly owned by c.
func children(c Component) []Component {
	if ct, ok := c.(container); ok {
		return ct.childComponents()
	}

	var out []Component
	walkFields(reflect.ValueOf(c), func(_ reflect.StructField, _ string, v reflect.Value) bool {
		if child, ok := componentIn(v); ok {
			out = append(out, child)
		}
		return true
	})
	return out
}

// componentIn extracts a component held directly by a field, either as a
// pointer/interface or as the literal of a Value.
func componentIn(v reflect.Value) (Component, bool) {
	if !v.IsValid() || !v.CanInterface() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil, false
		}
	}

	switch x := v.Interface().(type) {
	case Component:
		if isNil(x) {
			return nil, false
		}
		return x, true
	case literalHolder:
		lit, ok := x.literalAny()
		if !ok {
			return nil, false
		}
		if c, ok := lit.(Component); ok && !isNil(c) {
			return c, true
		}
	}
	return nil, false
}

// walkFields visits the exported fields of the struct behind v, flattening
// embedded structs the way encoding/json does. fn returns false to stop.
func walkFields(v reflect.Value, fn func(f reflect.StructField, name string, fv reflect.Value) bool) bool {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return true
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)

		if f.Anonymous {
			if f.Type == baseType {
				continue
			}
			if _, tagged := f.Tag.Lookup("json"); !tagged {
				if !walkFields(fv, fn) {
					return false
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		name, ok := jsonName(f)
		if !ok {
			continue
		}
		if !fn(f, name, fv) {
			return false
		}
	}
	return true
}

var baseType = reflect.TypeOf(Base{})

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, true
}

// field returns the value of the exported field serialized as name.
func field(c Component, name string) (reflect.StructField, reflect.Value, bool) {
	var (
		found reflect.StructField
		value reflect.Value
		ok    bool
	)
	walkFields(reflect.ValueOf(c), func(f reflect.StructField, n string, fv reflect.Value) bool {
		if n == name {
			found, value, ok = f, fv, true
			return false
		}
		return true
	})
	return found, value, ok
}

func isNil(x any) bool {
	if x == nil {
		return true
	}
	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
