package payload

import (
	"fmt"
	"sort"
)

// Kind identifies the variant held by a Value
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
)

// String returns the validator-facing type name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "dict"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a loosely-typed payload node fetched from an upstream source
// ⭐ SSOT: 모든 외부 페이로드는 이 타입으로 표현
//
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	list []Value
	m    map[string]Value
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integral number
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating point number
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps text
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes wraps binary content
func Bytes(b []byte) Value { return Value{kind: KindBytes, raw: b} }

// List wraps a sequence of values
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Map wraps a keyed container. The map is used as-is, not copied.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v is an Int or a Float. Bool is never a number.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsBool returns the boolean and whether v is a Bool
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer and whether v is an Int
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsString returns the text and whether v is a String
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBytes returns the binary content and whether v is Bytes
func (v Value) AsBytes() ([]byte, bool) { return v.raw, v.kind == KindBytes }

// AsList returns the items and whether v is a List
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the entries and whether v is a Map
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Number returns the numeric value as float64 and whether v is a number
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Len returns the number of items of a List or entries of a Map, 0 otherwise
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Get looks up key in a Map value
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	child, ok := v.m[key]
	return child, ok
}

// Keys returns the sorted keys of a Map value
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of the Map value with key set to child.
// Non-map values are returned unchanged.
func (v Value) With(key string, child Value) Value {
	if v.kind != KindMap {
		return v
	}
	m := make(map[string]Value, len(v.m)+1)
	for k, e := range v.m {
		m[k] = e
	}
	m[key] = child
	return Map(m)
}

// Equal reports deep equality. Int(1) and Float(1) are not equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBytes:
		return string(v.raw) == string(o.raw)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	}
	return false
}

// Native converts v into plain Go values:
// nil, bool, int64, float64, string, []byte, []any, map[string]any
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Native()
		}
		return out
	default:
		return nil
	}
}

// Display renders v the way it appears in validation messages
func (v Value) Display() string {
	if v.kind == KindString {
		return v.s
	}
	return string(Canonical(v))
}
