package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/payload"
)

func mustDecode(t *testing.T, s string) payload.Value {
	t.Helper()
	v, err := payload.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func TestContentHash_Deterministic(t *testing.T) {
	v := mustDecode(t, `{"total_generation_mw": 35000, "available": true, "sources": [1, 2, 3]}`)

	first := ContentHash(v)
	second := ContentHash(v)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestContentHash_KeyOrderIndependent(t *testing.T) {
	a := mustDecode(t, `{"a": 1, "b": {"x": true, "y": [1, 2]}, "c": "z"}`)
	b := mustDecode(t, `{"c": "z", "b": {"y": [1, 2], "x": true}, "a": 1}`)

	assert.Equal(t, ContentHash(a), ContentHash(b))
}

func TestContentHash_DifferentContent(t *testing.T) {
	a := mustDecode(t, `{"a": 1}`)
	b := mustDecode(t, `{"a": 2}`)

	assert.NotEqual(t, ContentHash(a), ContentHash(b))
}

func TestContentHash_TextAndBinary(t *testing.T) {
	text := "hello chargers"
	sum := sha256.Sum256([]byte(text))
	want := hex.EncodeToString(sum[:])

	assert.Equal(t, want, ContentHash(payload.String(text)))
	assert.Equal(t, want, ContentHash(payload.Bytes([]byte(text))))
}

func TestContentHash_MatchesCanonicalJSON(t *testing.T) {
	v := mustDecode(t, `{"b": 2, "a": [1, 2.5]}`)
	sum := sha256.Sum256([]byte(`{"a": [1, 2.5], "b": 2}`))

	assert.Equal(t, hex.EncodeToString(sum[:]), ContentHash(v))
}

func TestCountRows(t *testing.T) {
	tests := []struct {
		name string
		in   payload.Value
		want int
	}{
		{"empty list", payload.List(), 0},
		{"list", mustDecode(t, `[1, 2, 3, 4]`), 4},
		{"items key", mustDecode(t, `{"items": [1, 2, 3]}`), 3},
		{"results key", mustDecode(t, `{"meta": {}, "results": [1, 2]}`), 2},
		{"preferred order", mustDecode(t, `{"records": [1], "items": [1, 2]}`), 2},
		{"non-list under key", mustDecode(t, `{"items": "none", "data": [1, 2, 3, 4, 5]}`), 5},
		{"no row key", mustDecode(t, `{"foo": "bar"}`), 1},
		{"text", payload.String("text"), 1},
		{"number", payload.Int(7), 1},
		{"null", payload.Null(), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountRows(tt.in))
		})
	}
}

func TestContentHash_BareScalars(t *testing.T) {
	digest := func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	}

	tests := []struct {
		name string
		v    payload.Value
		want string
	}{
		{"true", payload.Bool(true), "True"},
		{"false", payload.Bool(false), "False"},
		{"null", payload.Null(), "None"},
		{"int", payload.Int(42), "42"},
		{"float", payload.Float(0.67), "0.67"},
		{"whole float", payload.Float(35000), "35000.0"},
		{"nan", payload.Float(math.NaN()), "nan"},
		{"-inf", payload.Float(math.Inf(-1)), "-inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, digest(tt.want), ContentHash(tt.v))
			assert.Equal(t, len(tt.want), DataSize(tt.v))
		})
	}

	// nested scalars keep their JSON form
	assert.Equal(t, digest(`[true, null]`), ContentHash(payload.List(payload.Bool(true), payload.Null())))
}

func TestDataSize(t *testing.T) {
	assert.Equal(t, len(`{"a": 1}`), DataSize(mustDecode(t, `{"a":1}`)))
	assert.Equal(t, len("café"), DataSize(payload.String("café")))
	assert.Equal(t, 3, DataSize(payload.Bytes([]byte{0x01, 0x02, 0x03})))
	assert.Equal(t, 4, DataSize(payload.Null()))
}

func TestOf(t *testing.T) {
	v := mustDecode(t, `{"items": [{"id": 1}, {"id": 2}]}`)
	fp := Of(v)

	assert.Equal(t, ContentHash(v), fp.ContentHash)
	assert.Equal(t, DataSize(v), fp.DataSizeBytes)
	assert.Equal(t, 2, fp.RowCount)
}
