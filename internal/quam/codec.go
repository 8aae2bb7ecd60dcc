package quam

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vk/squidquam/internal/refpath"
)

// ClassKey is the JSON attribute carrying the registered class of a
// component stored behind an interface type.
const ClassKey = "__class__"

func encodeEntry(v any, ref string, tagged bool) ([]byte, error) {
	if ref != "" {
		return json.Marshal(ref)
	}
	if c, ok := v.(Component); ok && tagged && !isNil(c) {
		return marshalTagged(c)
	}
	return json.Marshal(v)
}

// marshalTagged encodes c and splices its class name in as the first key.
func marshalTagged(c Component) ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	name := ClassName(c)
	if name == "" || len(raw) < 2 || raw[0] != '{' {
		return raw, nil
	}
	head, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"` + ClassKey + `":`)
	buf.Write(head)
	if len(bytes.TrimSpace(raw[1:len(raw)-1])) > 0 {
		buf.WriteByte(',')
	}
	buf.Write(raw[1:])
	return buf.Bytes(), nil
}

// decodeEntry decodes one field or container entry. Strings with the
// reference syntax come back as ref. Objects are built through the class
// registry when a factory is known, so component defaults survive loading.
func decodeEntry[T any](raw []byte) (T, string, error) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return zero, "", fmt.Errorf("quam: empty JSON value")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && refpath.IsReference(s) {
			return zero, s, nil
		}
	}

	if raw[0] == '{' {
		target := typeOf[T]()
		var (
			c   Component
			err error
		)
		if isInterface[T]() {
			var probe struct {
				Class string `json:"__class__"`
			}
			if json.Unmarshal(raw, &probe) == nil && probe.Class != "" {
				c, err = New(probe.Class)
				if err != nil {
					return zero, "", err
				}
			}
		} else if factory, ok := factoryFor(target); ok {
			c = factory()
		}

		if c != nil {
			if err := json.Unmarshal(raw, c); err != nil {
				return zero, "", err
			}
			t, ok := any(c).(T)
			if !ok {
				return zero, "", fmt.Errorf("%w: class %s is not a %s", ErrTypeMismatch, ClassName(c), target)
			}
			return t, "", nil
		}
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, "", err
	}
	return v, "", nil
}
