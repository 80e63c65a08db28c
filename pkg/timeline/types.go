// Package timeline implements the timeline store: idempotent,
// cursor-tracked persistence of projected timeline events, with
// ordered query by task, dispute, and slot range.
package timeline

import (
	"context"
	"errors"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

// ErrNotFound is returned when no cursor has been set yet.
var ErrNotFound = errors.New("timeline: cursor not found")

// Record is a single stored timeline entry: a projected event plus
// its content hash, computed by the caller before insert (pkg/backfill
// uses projection.ProjectionHash). The stores keep the hash as given
// and do not recompute or verify it.
type Record struct {
	Event          projection.TimelineEvent `json:"event"`
	ProjectionHash string                   `json:"projection_hash"`
}

// Cursor is the backfill watermark persisted alongside the store.
type Cursor struct {
	Slot      uint64 `json:"slot"`
	Signature string `json:"signature"`
	EventName string `json:"event_name,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	SpanID    string `json:"span_id,omitempty"`
}

// Query filters timeline records. Zero-value fields are unconstrained.
type Query struct {
	TaskPda    string
	DisputePda string
	FromSlot   uint64
	ToSlot     uint64
	HasToSlot  bool
}

// AppendResult reports how many of the appended records were new
// versus already present under the canonical-tuple idempotency key.
type AppendResult struct {
	Processed  int
	Duplicates int
}

// Store is the timeline store port. Implementations must make Append
// atomic per page (I5): either every record lands and the cursor
// advances, or nothing does.
type Store interface {
	Append(ctx context.Context, records []Record) (AppendResult, error)
	Query(ctx context.Context, q Query) ([]Record, error)
	GetCursor(ctx context.Context) (Cursor, error)
	SetCursor(ctx context.Context, c Cursor) error
	Close() error
}
