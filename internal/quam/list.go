package quam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// List is an ordered container addressed by index.
type List[T any] struct {
	Base
	items []entry[T]
}

// NewList returns a List holding vs.
func NewList[T any](vs ...T) *List[T] {
	l := &List[T]{}
	for _, v := range vs {
		l.Append(v)
	}
	return l
}

// Append adds v and adopts it if it is a component. A string in the
// reference syntax is added as a reference.
func (l *List[T]) Append(v T) {
	if ref, ok := referenceLiteral(v); ok {
		l.AppendRef(ref)
		return
	}
	l.items = append(l.items, entry[T]{val: v})
	if c, ok := any(v).(Component); ok && !isNil(c) {
		Attach(l, c)
	}
}

// AppendRef adds a reference.
func (l *List[T]) AppendRef(ref string) {
	l.items = append(l.items, entry[T]{ref: ref})
}

// Insert puts a literal at index i, shifting later entries, and adopts it if
// it is a component. i may equal Len.
func (l *List[T]) Insert(i int, v T) error {
	if i < 0 || i > l.Len() {
		return fmt.Errorf("%w: insert index %d out of range [0, %d]", ErrUnresolvable, i, l.Len())
	}
	e := entry[T]{val: v}
	if ref, ok := referenceLiteral(v); ok {
		e = entry[T]{ref: ref}
	}
	l.items = append(l.items, entry[T]{})
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = e
	if c, ok := any(v).(Component); ok && !isNil(c) {
		Attach(l, c)
	}
	return nil
}

// Get returns the entry at i, resolving a reference relative to l.
func (l *List[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= l.Len() {
		return zero, fmt.Errorf("%w: index %d out of range", ErrUnresolvable, i)
	}
	e := l.items[i]
	if e.ref != "" {
		x, err := Resolve(l, e.ref)
		if err != nil {
			return zero, err
		}
		return As[T](x)
	}
	return e.val, nil
}

// Len returns the number of entries.
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Values resolves every entry in order.
func (l *List[T]) Values() ([]T, error) {
	out := make([]T, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		v, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *List[T]) lookup(name string) (any, bool) {
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i >= l.Len() {
		return nil, false
	}
	e := l.items[i]
	if e.ref != "" {
		return Ref[T](e.ref), true
	}
	return e.val, true
}

func (l *List[T]) childComponents() []Component {
	var out []Component
	for i := 0; i < l.Len(); i++ {
		e := l.items[i]
		if e.ref != "" {
			continue
		}
		if c, ok := any(e.val).(Component); ok && !isNil(c) {
			out = append(out, c)
		}
	}
	return out
}

func (l *List[T]) nameOf(c Component) (string, bool) {
	if i, ok := l.indexOf(c); ok {
		return strconv.Itoa(i), true
	}
	return "", false
}

func (l *List[T]) indexOf(c Component) (int, bool) {
	for i := 0; i < l.Len(); i++ {
		e := l.items[i]
		if e.ref != "" {
			continue
		}
		if v, ok := any(e.val).(Component); ok && Same(v, c) {
			return i, true
		}
	}
	return 0, false
}

// MarshalJSON writes the entries as a JSON array.
func (l *List[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	tagged := isInterface[T]()

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range l.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := encodeEntry(e.val, e.ref, tagged)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON array.
func (l *List[T]) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	l.items = make([]entry[T], 0, len(raws))
	for i, raw := range raws {
		val, ref, err := decodeEntry[T](raw)
		if err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		l.items = append(l.items, entry[T]{val: val, ref: ref})
		if c, ok := any(val).(Component); ok && ref == "" && !isNil(c) {
			c.base().parent = l
		}
	}
	return nil
}
