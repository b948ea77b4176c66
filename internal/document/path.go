package document

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Get walks obj along path and returns the value found, or nil.
func Get(obj Object, path ...string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(Object)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// GetObject returns the object at path, or nil if it is absent or not an object.
func GetObject(obj Object, path ...string) Object {
	m, _ := Get(obj, path...).(Object)
	return m
}

// EnsureObject returns obj[key] as an object, replacing any absent or non-object
// value with a fresh empty object.
func EnsureObject(obj Object, key string) Object {
	if m, ok := obj[key].(Object); ok {
		return m
	}
	m := Object{}
	obj[key] = m
	return m
}

// EnsurePath applies EnsureObject along path and returns the innermost object.
func EnsurePath(obj Object, path ...string) Object {
	cur := obj
	for _, key := range path {
		cur = EnsureObject(cur, key)
	}
	return cur
}

// Has reports whether obj contains key, even if its value is null.
func Has(obj Object, key string) bool {
	if obj == nil {
		return false
	}
	_, ok := obj[key]
	return ok
}

// Array returns v as an array, or nil.
func Array(v any) []any {
	a, _ := v.([]any)
	return a
}

// String returns v if it is a string, otherwise "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Bool returns the value of v and whether v is a boolean at all.
func Bool(v any) (value, ok bool) {
	value, ok = v.(bool)
	return value, ok
}

// Int returns v as an integer if it is a whole JSON number.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// Truthy reports whether v would pass a boolean test in the client that wrote the
// document: null, false, 0, NaN and "" are false, everything else is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// IDString renders a string or numeric id as a string. Other values yield "".
func IDString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// Strings returns the string elements of an array, skipping everything else.
func Strings(v any) []string {
	arr := Array(v)
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// StringArray converts ids into a JSON array value.
func StringArray(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// ContainsString reports whether arr has a string element equal to s.
func ContainsString(arr []any, s string) bool {
	for _, e := range arr {
		if e == s {
			return true
		}
	}
	return false
}

// AppendUnique appends s to arr unless it is already present.
func AppendUnique(arr []any, s string) []any {
	if ContainsString(arr, s) {
		return arr
	}
	return append(arr, s)
}

// SortedKeys returns the keys of obj in ascending order.
func SortedKeys(obj Object) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
