package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "devdeck/internal/platform/errors"
)

const PathSeparator = "."

// FlatDocument is a nested object seen as dotted paths to leaf values. Keys
// keeps the depth-first document order; Values is keyed by the same paths.
type FlatDocument struct {
	Keys   []string
	Values map[string]any
}

// Flatten walks obj depth first. Arrays and empty objects are leaves.
func Flatten(obj *Object) FlatDocument {
	doc := FlatDocument{Values: map[string]any{}}
	flattenInto(&doc, obj, "", true)
	return doc
}

// flattenInto joins keys below the root with PathSeparator. The root flag,
// not an empty prefix, marks the top level, so an empty key still claims a
// segment.
func flattenInto(doc *FlatDocument, obj *Object, prefix string, root bool) {
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		path := pair.Key
		if !root {
			path = prefix + PathSeparator + pair.Key
		}
		if nested, ok := pair.Value.(*Object); ok && nested.Len() > 0 {
			flattenInto(doc, nested, path, false)
			continue
		}
		doc.Keys = append(doc.Keys, path)
		doc.Values[path] = pair.Value
	}
}

// Unflatten replays every path in order, creating intermediate objects.
func Unflatten(doc FlatDocument) *Object {
	root := NewObject()
	for _, path := range doc.Keys {
		segments := strings.Split(path, PathSeparator)
		current := root
		for _, seg := range segments[:len(segments)-1] {
			next, ok := current.Get(seg)
			nested, isObj := next.(*Object)
			if !ok || !isObj {
				nested = NewObject()
				current.Set(seg, nested)
			}
			current = nested
		}
		current.Set(segments[len(segments)-1], doc.Values[path])
	}
	return root
}

// Len reports the number of leaves.
func (d FlatDocument) Len() int { return len(d.Keys) }

// Value returns the leaf at path.
func (d FlatDocument) Value(path string) (any, bool) {
	v, ok := d.Values[path]
	return v, ok
}

// SetField parses text according to the current leaf's type and stores it.
// Strings take the text verbatim; booleans and numbers must parse as such;
// any other leaf must be a JSON literal.
func (d FlatDocument) SetField(path, text string) error {
	current, ok := d.Values[path]
	if !ok {
		return fmt.Errorf("set field %q: %w", path, apperrors.ErrNotFound)
	}
	value, err := parseLike(current, text)
	if err != nil {
		return fmt.Errorf("set field %q: %w: %v", path, apperrors.ErrInvalidInput, err)
	}
	d.Values[path] = value
	return nil
}

func parseLike(current any, text string) (any, error) {
	switch current.(type) {
	case string:
		return text, nil
	case bool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("expected true or false")
		}
		return b, nil
	case json.Number:
		n := json.Number(strings.TrimSpace(text))
		if !isJSONNumber(n.String()) {
			return nil, fmt.Errorf("expected a number")
		}
		return n, nil
	default:
		return DecodeValue(text)
	}
}

func isJSONNumber(s string) bool {
	v, err := DecodeValue(s)
	if err != nil {
		return false
	}
	_, ok := v.(json.Number)
	return ok
}

// FormatValue renders a leaf for a single-line form field.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	text, err := EncodeCompact(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return text
}
