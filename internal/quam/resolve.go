package quam

import (
	"errors"
	"fmt"

	"github.com/vk/squidquam/internal/refpath"
)

// maxHops bounds how many references a single resolution may follow.
const maxHops = 64

// Propertier exposes computed attributes to reference resolution. found is
// false when the component has no property called name.
type Propertier interface {
	Property(name string) (value any, found bool, err error)
}

// Resolve follows ref starting at owner, the component holding the
// reference. References met along the way are followed relative to the
// component that holds them.
func Resolve(owner Component, ref string) (any, error) {
	return resolve(owner, ref, 0)
}

func resolve(owner Component, raw string, hops int) (any, error) {
	if hops > maxHops {
		return nil, &ResolveError{Ref: raw, Err: ErrReferenceCycle}
	}
	ref, err := refpath.Parse(raw)
	if err != nil {
		return nil, err
	}
	if isNil(owner) {
		return nil, &ResolveError{Ref: raw, Err: ErrNoParent}
	}

	node := owner
	if ref.Absolute {
		node = RootOf(owner)
	}
	for i := 0; i < ref.Up; i++ {
		parent := ParentOf(node)
		if parent == nil {
			return nil, &ResolveError{Ref: raw, Segment: "..", Err: ErrNoParent}
		}
		node = parent
	}

	var cur any = node
	for _, segment := range ref.Path {
		holder, ok := cur.(Component)
		if !ok || isNil(holder) {
			return nil, &ResolveError{Ref: raw, Segment: segment, Err: fmt.Errorf("%w: cannot descend into %T", ErrUnresolvable, cur)}
		}
		cur, err = resolveAttr(holder, segment, hops+1)
		if err != nil {
			var re *ResolveError
			if errors.As(err, &re) {
				return nil, err
			}
			return nil, &ResolveError{Ref: raw, Segment: segment, Err: err}
		}
	}
	return cur, nil
}

// resolveAttr reads the attribute name of holder and follows it. Reading an
// attribute that is already being resolved further up the call stack is a
// cycle, also when the loop runs through a computed property.
func resolveAttr(holder Component, name string, hops int) (any, error) {
	b := holder.base()
	key := attrKey{holder: holder, name: name}
	for _, k := range b.resolving {
		if k == key {
			return nil, ErrReferenceCycle
		}
	}
	b.resolving = append(b.resolving, key)
	defer func() { b.resolving = b.resolving[:len(b.resolving)-1] }()

	v, err := Attr(holder, name)
	if err != nil {
		return nil, err
	}
	return follow(holder, v, hops)
}

// follow dereferences v if it is a reference held by holder.
func follow(holder Component, v any, hops int) (any, error) {
	lh, ok := v.(literalHolder)
	if !ok {
		return v, nil
	}
	if ref := lh.referenceString(); ref != "" {
		return resolve(holder, ref, hops)
	}
	lit, set := lh.literalAny()
	if !set {
		return nil, nil
	}
	return lit, nil
}

// Attr returns the raw attribute name of c: a container entry, an exported
// field (by json name) or a computed property. Values are returned
// unresolved.
func Attr(c Component, name string) (any, error) {
	if ct, ok := c.(container); ok {
		v, found := ct.lookup(name)
		if !found {
			return nil, fmt.Errorf("%w: no entry %q", ErrUnresolvable, name)
		}
		return v, nil
	}
	if _, fv, ok := field(c, name); ok {
		return fv.Interface(), nil
	}
	if p, ok := c.(Propertier); ok {
		v, found, err := p.Property(name)
		if err != nil {
			return nil, err
		}
		if found {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %T has no attribute %q", ErrUnresolvable, c, name)
}

// Get resolves the attribute name of c, following a reference if the
// attribute holds one.
func Get(c Component, name string) (any, error) {
	if isNil(c) {
		return nil, fmt.Errorf("%w: attribute %q of a nil component", ErrUnresolvable, name)
	}
	return resolveAttr(c, name, 0)
}
