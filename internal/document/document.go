// Package document provides helpers for the untyped, persisted application state.
//
// A persisted document is decoded into plain Go values: Object for JSON objects,
// []any for arrays, string, bool, nil and json.Number for numbers. Numbers are kept as
// json.Number so that large item ids survive a decode/encode round trip unchanged.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Object is a JSON object.
type Object = map[string]any

// VersionKey and PersistKey locate the schema version tag: doc[PersistKey][VersionKey].
const (
	PersistKey = "_persist"
	VersionKey = "version"
)

// Decode reads a single JSON object from r.
func Decode(r io.Reader) (Object, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if v == nil {
		return Object{}, nil
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("decode document: root is %T, not an object", v)
	}
	return obj, nil
}

// Parse decodes a document from b. Empty input yields an empty document.
func Parse(b []byte) (Object, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Object{}, nil
	}
	return Decode(bytes.NewReader(b))
}

// Encode marshals the document. Object keys are written in sorted order, so two
// structurally equal documents always encode to the same bytes.
func Encode(doc Object) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// Equal reports whether a and b are structurally equal JSON values.
// Numbers compare by their JSON text, so json.Number("1") equals float64(1).
func Equal(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Clone returns a deep copy of a JSON value. Values of other types are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case Object:
		return CloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

// CloneObject returns a deep copy of obj. A nil obj clones to nil.
func CloneObject(obj Object) Object {
	if obj == nil {
		return nil
	}
	out := make(Object, len(obj))
	for k, v := range obj {
		out[k] = Clone(v)
	}
	return out
}

// Version returns the schema version stored in doc. Absent or malformed tags are 0.
func Version(doc Object) int {
	n, ok := Int(Get(doc, PersistKey, VersionKey))
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

// SetVersion stamps the schema version onto doc.
func SetVersion(doc Object, version int) {
	EnsureObject(doc, PersistKey)[VersionKey] = json.Number(strconv.Itoa(version))
}
