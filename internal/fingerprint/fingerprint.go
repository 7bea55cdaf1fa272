// Package fingerprint computes content hashes and shape summaries of fetched payloads.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"math"

	"github.com/wonny/evlq/internal/payload"
)

// rowKeys are checked in order when counting rows of a keyed container
var rowKeys = []string{"items", "results", "data", "records"}

// Fingerprint summarises one payload
type Fingerprint struct {
	ContentHash   string `json:"content_hash"`
	DataSizeBytes int    `json:"data_size_bytes"`
	RowCount      int    `json:"row_count"`
}

// Of computes the full fingerprint of v
// ⭐ SSOT: 페이로드 해시/크기/행 수 계산은 이 패키지에서만
func Of(v payload.Value) Fingerprint {
	content := serialize(v)
	sum := sha256.Sum256(content)

	return Fingerprint{
		ContentHash:   hex.EncodeToString(sum[:]),
		DataSizeBytes: len(content),
		RowCount:      CountRows(v),
	}
}

// ContentHash returns the SHA-256 hex digest of v's stable serialization
func ContentHash(v payload.Value) string {
	sum := sha256.Sum256(serialize(v))
	return hex.EncodeToString(sum[:])
}

// DataSize returns the byte length of v's serialization
func DataSize(v payload.Value) int {
	return len(serialize(v))
}

// CountRows returns the number of rows carried by v:
// length of a list, length of the first list under a preferred key of a map, 1 otherwise
func CountRows(v payload.Value) int {
	switch v.Kind() {
	case payload.KindList:
		return v.Len()
	case payload.KindMap:
		for _, key := range rowKeys {
			if child, ok := v.Get(key); ok && child.Kind() == payload.KindList {
				return child.Len()
			}
		}
		return 1
	default:
		return 1
	}
}

// serialize returns the bytes that are hashed and measured.
// Text is its UTF-8 bytes and binary is used as-is. Lists and maps use the
// canonical encoding (sorted keys), whose length equals that of the natural
// encoding since only key order differs. Bare bool, null and non-finite
// scalars hash as the text True, False, None, nan and inf.
func serialize(v payload.Value) []byte {
	switch v.Kind() {
	case payload.KindString:
		s, _ := v.AsString()
		return []byte(s)
	case payload.KindBytes:
		b, _ := v.AsBytes()
		return b
	case payload.KindNull:
		return []byte("None")
	case payload.KindBool:
		if b, _ := v.AsBool(); b {
			return []byte("True")
		}
		return []byte("False")
	case payload.KindFloat:
		if f, _ := v.Number(); math.IsNaN(f) || math.IsInf(f, 0) {
			return []byte(scalarText(f))
		}
		return payload.Canonical(v)
	default:
		return payload.Canonical(v)
	}
}

func scalarText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case f > 0:
		return "inf"
	default:
		return "-inf"
	}
}
