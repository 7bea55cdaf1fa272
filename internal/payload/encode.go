package payload

import (
	"bytes"
	"encoding/base64"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

type encodeStyle struct {
	itemSep   string
	keySep    string
	asciiOnly bool
}

var (
	// canonicalStyle is the stable serialization used for hashing and sizing:
	// sorted keys, ", " and ": " separators, non-ASCII escaped as \uXXXX.
	canonicalStyle = encodeStyle{itemSep: ", ", keySep: ": ", asciiOnly: true}

	compactStyle = encodeStyle{itemSep: ",", keySep: ":"}
)

// Canonical returns the stable, order-independent serialization of v.
// Map keys are always sorted so logically equal payloads encode identically.
func Canonical(v Value) []byte {
	var buf bytes.Buffer
	encodeValue(&buf, v, canonicalStyle)
	return buf.Bytes()
}

// MarshalJSON encodes v as compact JSON with sorted keys.
// Floats keep a fractional part so a round trip preserves Int vs Float.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encodeValue(&buf, v, compactStyle)
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes JSON into v
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func encodeValue(buf *bytes.Buffer, v Value, st encodeStyle) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		buf.WriteString(formatFloat(v.f, st))
	case KindString:
		writeString(buf, v.s, st.asciiOnly)
	case KindBytes:
		writeString(buf, base64.StdEncoding.EncodeToString(v.raw), st.asciiOnly)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteString(st.itemSep)
			}
			encodeValue(buf, item, st)
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteString(st.itemSep)
			}
			writeString(buf, k, st.asciiOnly)
			buf.WriteString(st.keySep)
			encodeValue(buf, v.m[k], st)
		}
		buf.WriteByte('}')
	}
}

// formatFloat renders the shortest round-trip form, always with a fractional
// part or exponent so the value stays a float when decoded again.
func formatFloat(f float64, st encodeStyle) string {
	switch {
	case math.IsNaN(f):
		if st.asciiOnly {
			return "NaN"
		}
		return "null"
	case math.IsInf(f, 1):
		if st.asciiOnly {
			return "Infinity"
		}
		return "null"
	case math.IsInf(f, -1):
		if st.asciiOnly {
			return "-Infinity"
		}
		return "null"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string, asciiOnly bool) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch r {
		case '"':
			buf.WriteString(`\"`)
			continue
		case '\\':
			buf.WriteString(`\\`)
			continue
		case '\n':
			buf.WriteString(`\n`)
			continue
		case '\r':
			buf.WriteString(`\r`)
			continue
		case '\t':
			buf.WriteString(`\t`)
			continue
		case '\b':
			buf.WriteString(`\b`)
			continue
		case '\f':
			buf.WriteString(`\f`)
			continue
		}

		switch {
		case r < 0x20 || (asciiOnly && r == 0x7f):
			writeEscape(buf, r)
		case r < utf8.RuneSelf || !asciiOnly:
			buf.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			writeEscape(buf, hi)
			writeEscape(buf, lo)
		default:
			writeEscape(buf, r)
		}
	}
	buf.WriteByte('"')
}

func writeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xF])
	buf.WriteByte(hexDigits[(r>>8)&0xF])
	buf.WriteByte(hexDigits[(r>>4)&0xF])
	buf.WriteByte(hexDigits[r&0xF])
}
