package canonicalize

import (
	"encoding/hex"
	"strconv"

	"github.com/mr-tron/base58"
)

// base58Fields and hexFields fix the stable encoding for a byte-shaped
// field per field name per §4.A: opaque pubkeys/identifiers use base58 (the
// coordination protocol's native identifier alphabet), digest-like
// fields use hex.
var base58Fields = map[string]bool{
	"task_pda":     true,
	"dispute_pda":  true,
	"dispute_id":   true,
	"actor":        true,
	"wallet":       true,
	"arbiter":      true,
	"agent_pubkey": true,
}

var hexFields = map[string]bool{
	"signature":   true,
	"trace_id":    true,
	"span_id":     true,
	"parent_span": true,
	"digest":      true,
	"hash":        true,
}

// EncodeBytesForField encodes raw bytes for the named field using the
// fixed-per-field encoding. Fields not in either table default to hex,
// the safer (never-ambiguous) choice.
func EncodeBytesForField(field string, b []byte) string {
	if base58Fields[field] {
		return base58.Encode(b)
	}
	return hex.EncodeToString(b)
}

// DecodeBytesForField is the inverse of EncodeBytesForField.
func DecodeBytesForField(field string, s string) ([]byte, error) {
	if base58Fields[field] {
		return base58.Decode(s)
	}
	return hex.DecodeString(s)
}

// maxSafeInteger is the largest integer exactly representable by an
// IEEE-754 double (2^53), the boundary JSON-number implementations
// commonly use for safe integer round-tripping.
const maxSafeInteger = int64(1) << 53

// EncodeLargeInt returns the decimal string form of n when it exceeds
// the 53-bit safe-integer boundary, and the plain int64 otherwise,
// for use by code building payload trees field-by-field.
func EncodeLargeInt(n int64) interface{} {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	if abs > maxSafeInteger {
		return strconv.FormatInt(n, 10)
	}
	return n
}

// EncodeLargeUint is the unsigned counterpart of EncodeLargeInt.
func EncodeLargeUint(n uint64) interface{} {
	if n > uint64(maxSafeInteger) {
		return strconv.FormatUint(n, 10)
	}
	return n
}
