package projection

import "github.com/Mindburn-Labs/replayspine/pkg/canonicalize"

// ProjectionHash computes the SHA-256 hex digest of a TimelineEvent's
// canonical JSON representation (I3). pkg/backfill calls this when
// building a timeline.Record from a projected event, before the record
// is appended; projection-level tests (P3) call it directly.
func ProjectionHash(ev TimelineEvent) (string, error) {
	return canonicalize.CanonicalHash(ev)
}
