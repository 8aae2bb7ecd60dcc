package quam

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type entry[T any] struct {
	val T
	ref string
}

// Dict is an insertion-ordered string-keyed container. Entries hold either a
// literal or a reference; components stored in it are adopted.
type Dict[T any] struct {
	Base
	keys  []string
	items map[string]entry[T]
}

// NewDict returns an empty Dict.
func NewDict[T any]() *Dict[T] {
	return &Dict[T]{items: make(map[string]entry[T])}
}

func (d *Dict[T]) init() {
	if d.items == nil {
		d.items = make(map[string]entry[T])
	}
}

func (d *Dict[T]) put(key string, e entry[T]) {
	d.init()
	old, ok := d.items[key]
	if !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = e
	if ok {
		d.detach(old)
	}
}

// detach clears the parent link of a component that left d.
func (d *Dict[T]) detach(e entry[T]) {
	if e.ref != "" {
		return
	}
	c, ok := any(e.val).(Component)
	if !ok || isNil(c) || !Same(ParentOf(c), d) {
		return
	}
	if _, still := d.nameOf(c); !still {
		c.base().parent = nil
	}
}

// Set stores v under key and adopts it if it is a component. A string in
// the reference syntax is stored as a reference, like SetRef.
func (d *Dict[T]) Set(key string, v T) {
	if ref, ok := referenceLiteral(v); ok {
		d.SetRef(key, ref)
		return
	}
	d.put(key, entry[T]{val: v})
	if c, ok := any(v).(Component); ok && !isNil(c) {
		Attach(d, c)
	}
}

// SetRef stores a reference under key.
func (d *Dict[T]) SetRef(key, ref string) {
	d.put(key, entry[T]{ref: ref})
}

// Get returns the entry under key, resolving a reference relative to d.
func (d *Dict[T]) Get(key string) (T, error) {
	var zero T
	if d == nil {
		return zero, fmt.Errorf("%w: key %q in nil dict", ErrUnresolvable, key)
	}
	e, ok := d.items[key]
	if !ok {
		return zero, fmt.Errorf("%w: no key %q", ErrUnresolvable, key)
	}
	if e.ref != "" {
		x, err := Resolve(d, e.ref)
		if err != nil {
			return zero, err
		}
		return As[T](x)
	}
	return e.val, nil
}

// Raw returns the stored entry without resolving it.
func (d *Dict[T]) Raw(key string) (val T, ref string, ok bool) {
	if d == nil {
		return val, "", false
	}
	e, ok := d.items[key]
	return e.val, e.ref, ok
}

// Has reports whether key is present.
func (d *Dict[T]) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.items[key]
	return ok
}

// Delete removes key. Removed components are detached.
func (d *Dict[T]) Delete(key string) {
	if d == nil {
		return
	}
	e, ok := d.items[key]
	if !ok {
		return
	}
	delete(d.items, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	d.detach(e)
}

// Keys returns the keys in insertion order.
func (d *Dict[T]) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len returns the number of entries.
func (d *Dict[T]) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Values resolves every entry, in key order.
func (d *Dict[T]) Values() ([]T, error) {
	out := make([]T, 0, d.Len())
	for _, k := range d.Keys() {
		v, err := d.Get(k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Dict[T]) lookup(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	e, ok := d.items[name]
	if !ok {
		return nil, false
	}
	if e.ref != "" {
		return Ref[T](e.ref), true
	}
	return e.val, true
}

func (d *Dict[T]) childComponents() []Component {
	var out []Component
	for _, k := range d.Keys() {
		e := d.items[k]
		if e.ref != "" {
			continue
		}
		if c, ok := any(e.val).(Component); ok && !isNil(c) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Dict[T]) nameOf(c Component) (string, bool) {
	for _, k := range d.Keys() {
		e := d.items[k]
		if e.ref != "" {
			continue
		}
		if v, ok := any(e.val).(Component); ok && Same(v, c) {
			return k, true
		}
	}
	return "", false
}

// MarshalJSON writes entries in insertion order.
func (d *Dict[T]) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	tagged := isInterface[T]()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		e := d.items[k]
		val, err := encodeEntry(e.val, e.ref, tagged)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads entries keeping document order. The parent link of
// decoded components is restored by Adopt.
func (d *Dict[T]) UnmarshalJSON(b []byte) error {
	d.keys = nil
	d.items = make(map[string]entry[T])

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("quam: dict must be a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("quam: unexpected dict key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		val, ref, err := decodeEntry[T](raw)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		if ref != "" {
			d.put(key, entry[T]{ref: ref})
			continue
		}
		d.put(key, entry[T]{val: val})
		if c, ok := any(val).(Component); ok && !isNil(c) {
			c.base().parent = d
		}
	}
	return nil
}
