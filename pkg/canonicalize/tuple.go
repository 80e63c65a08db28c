package canonicalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Tuple is the total order key used for sorting and dedup of raw
// protocol events: (slot, signature, source_event_sequence, event_name).
type Tuple struct {
	Slot                uint64
	Signature           string
	SourceEventSequence uint32
	EventName           string
}

// Key returns a string suitable for use as a map key / sort key. It is
// not itself canonical JSON — it exists purely for in-process
// comparisons and dedup sets.
func (t Tuple) Key() string {
	return strconv.FormatUint(t.Slot, 10) + "\x1f" +
		t.Signature + "\x1f" +
		strconv.FormatUint(uint64(t.SourceEventSequence), 10) + "\x1f" +
		t.EventName
}

// Less implements the strict total order over canonical tuples:
// (slot, signature, source_event_sequence, event_name) ascending.
func (t Tuple) Less(o Tuple) bool {
	if t.Slot != o.Slot {
		return t.Slot < o.Slot
	}
	if t.Signature != o.Signature {
		return t.Signature < o.Signature
	}
	if t.SourceEventSequence != o.SourceEventSequence {
		return t.SourceEventSequence < o.SourceEventSequence
	}
	return t.EventName < o.EventName
}

// RawInput is the minimal shape needed from a raw protocol event to
// derive its canonical tuple. Negative/missing numeric fields map to
// their zero value per §4.A; callers constructing this from JSON
// should leave fields unset (zero) rather than guessing.
type RawInput struct {
	EventName           string
	Slot                int64
	Signature           string
	SourceEventSequence int32
	TimestampMs         int64
	HasTimestamp        bool
	Event               interface{} // opaque payload
}

// Canonicalise derives the canonical tuple for a raw input. fallbackSeq
// is used as SourceEventSequence when the input's sequence is negative
// and the caller has no better value (e.g. single-event replay inputs
// authored without an explicit intra-transaction order).
func Canonicalise(in RawInput, fallbackSeq uint32) Tuple {
	slot := in.Slot
	if slot < 0 {
		slot = 0
	}
	seq := in.SourceEventSequence
	if seq < 0 {
		seq = int32(fallbackSeq)
	}
	return Tuple{
		Slot:                uint64(slot),
		Signature:            in.Signature,
		SourceEventSequence: uint32(seq),
		EventName:           in.EventName,
	}
}

// TupleHash returns a stable SHA-256 hex digest of a canonical tuple,
// used to derive deterministic trace IDs (§4.B.2).
func TupleHash(t Tuple) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatUint(t.Slot, 10)))
	h.Write([]byte{0x1f})
	h.Write([]byte(t.Signature))
	h.Write([]byte{0x1f})
	h.Write([]byte(t.EventName))
	h.Write([]byte{0x1f})
	h.Write([]byte(strconv.FormatUint(uint64(t.SourceEventSequence), 10)))
	return hex.EncodeToString(h.Sum(nil))
}
