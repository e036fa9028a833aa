package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers key order. Nested objects are
// *Object too, arrays are []any, numbers are json.Number.
type Object = orderedmap.OrderedMap[string, any]

var ErrNotObject = errors.New("document is not a JSON object")

func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// DecodeObject parses raw as a single JSON object, keeping key order at every
// level and numbers in their original text.
func DecodeObject(raw []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}
	obj, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}
	return obj, nil
}

// DecodeValue parses one JSON literal of any kind.
func DecodeValue(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after value")
	}
	return v, nil
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	default:
		return nil, fmt.Errorf("unexpected %q", delim)
	}
}

// Encode writes obj with two-space indentation and a trailing newline.
func Encode(obj *Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, obj, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// EncodeCompact renders a single value on one line.
func EncodeCompact(v any) (string, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v, -1); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// writeValue indents by depth; a negative depth means compact output.
func writeValue(buf *bytes.Buffer, v any, depth int) error {
	switch t := v.(type) {
	case *Object:
		if t.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			newline(buf, depth+1)
			if err := writeString(buf, pair.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if depth >= 0 {
				buf.WriteByte(' ')
			}
			if err := writeValue(buf, pair.Value, child(depth)); err != nil {
				return err
			}
			if pair.Next() != nil {
				buf.WriteByte(',')
			}
		}
		newline(buf, depth)
		buf.WriteByte('}')
	case []any:
		if len(t) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range t {
			newline(buf, depth+1)
			if err := writeValue(buf, item, child(depth)); err != nil {
				return err
			}
			if i < len(t)-1 {
				buf.WriteByte(',')
			}
		}
		newline(buf, depth)
		buf.WriteByte(']')
	case string:
		return writeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode %T: %w", t, err)
		}
		buf.Write(raw)
	}
	return nil
}

func child(depth int) int {
	if depth < 0 {
		return depth
	}
	return depth + 1
}

func newline(buf *bytes.Buffer, depth int) {
	if depth < 0 {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat("  ", depth))
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
