package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Decode parses JSON into a Value.
// Numbers without a fraction or exponent become Int, everything else Float.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decode payload: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("decode payload: trailing data after JSON value")
	}

	return FromGo(raw), nil
}

// FromGo converts a native Go value into a Value.
// Structs and other types are converted through their JSON encoding;
// anything that cannot be encoded falls back to its fmt string form.
func FromGo(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return fromUint(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case json.Number:
		return fromNumber(t)
	case string:
		return String(t)
	case []byte:
		return Bytes(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromGo(item)
		}
		return List(items...)
	case []Value:
		return List(t...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromGo(e)
		}
		return Map(m)
	case map[string]Value:
		return Map(t)
	}

	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null()
	}

	encoded, err := json.Marshal(x)
	if err != nil {
		return String(fmt.Sprint(x))
	}
	v, err := Decode(encoded)
	if err != nil {
		return String(fmt.Sprint(x))
	}
	return v
}

// fromUint keeps values above MaxInt64 as Float instead of wrapping negative
func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Int(int64(u))
}

func fromNumber(n json.Number) Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return String(s)
	}
	return Float(f)
}
