package projection

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
)

// deriveTraceID computes the run's trace_id per §4.B.2 when the caller
// did not supply one: SHA-256(slot || 0x1f || signature || 0x1f ||
// event_name || 0x1f || source_event_sequence), truncated to the first
// 32 hex characters.
func deriveTraceID(t canonicalize.Tuple) string {
	full := canonicalize.TupleHash(t)
	return full[:32]
}

// deriveSpanID computes a per-event span_id: the first 16 hex
// characters of SHA-256(trace_id || 0x1f || seq).
func deriveSpanID(traceID string, seq uint32) string {
	h := sha256.New()
	h.Write([]byte(traceID))
	h.Write([]byte{0x1f})
	h.Write([]byte(strconv.FormatUint(uint64(seq), 10)))
	full := hex.EncodeToString(h.Sum(nil))
	return full[:16]
}

// sampledDecision is a pure function of trace_id and sampleRate: no
// host randomness may leak into span/trace sampling (design notes §9).
// H(trace_id) is the first 8 bytes of SHA-256(trace_id) interpreted as
// a big-endian uint64.
func sampledDecision(traceID string, sampleRate float64) bool {
	if sampleRate <= 0 {
		return false
	}
	if sampleRate >= 1 {
		return true
	}
	h := sha256.Sum256([]byte(traceID))
	v := binary.BigEndian.Uint64(h[:8])
	const maxUint64AsFloat = 18446744073709551615.0
	threshold := uint64(sampleRate * maxUint64AsFloat)
	return v < threshold
}
