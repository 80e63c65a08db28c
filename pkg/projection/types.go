// Package projection implements the event projection engine: it
// canonicalises raw protocol events, deduplicates and orders them,
// validates task/dispute lifecycle transitions, computes per-event
// and per-trace content hashes, and emits a trajectory trace.
package projection

import (
	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

// RawEvent is an opaque protocol event plus the metadata needed to
// place it in the canonical total order.
type RawEvent struct {
	EventName           string                 `json:"event_name"`
	Slot                int64                  `json:"slot"`
	Signature           string                 `json:"signature"`
	SourceEventSequence int32                  `json:"source_event_sequence"`
	TimestampMs         int64                  `json:"timestamp_ms,omitempty"`
	Event               map[string]interface{} `json:"event,omitempty"`
}

// OnchainMeta is the `onchain` sub-object embedded in every
// TimelineEvent payload.
type OnchainMeta struct {
	EventName     string `json:"eventName"`
	Signature     string `json:"signature"`
	Slot          uint64 `json:"slot"`
	DisputeID     string `json:"disputeId,omitempty"`
	TraceID       string `json:"traceId,omitempty"`
	SpanID        string `json:"spanId,omitempty"`
	ParentSpanID  string `json:"parentSpanId,omitempty"`
	Sampled       *bool  `json:"sampled,omitempty"`
}

// TimelineEvent is a single projected record of the coordination
// protocol's history.
type TimelineEvent struct {
	Seq                 uint32                 `json:"seq"`
	Type                taxonomy.Type          `json:"type"`
	TaskPda             string                 `json:"task_pda,omitempty"`
	TimestampMs         int64                  `json:"timestamp_ms"`
	Payload             map[string]interface{} `json:"payload"`
	Slot                uint64                 `json:"slot"`
	Signature           string                 `json:"signature"`
	SourceEventName     string                 `json:"source_event_name"`
	SourceEventSequence uint32                 `json:"source_event_sequence"`
}

// TrajectoryTrace is the portable, canonical record of a projection
// run, keyed by trace_id.
type TrajectoryTrace struct {
	SchemaVersion int                    `json:"schema_version"`
	TraceID       string                 `json:"trace_id"`
	Seed          string                 `json:"seed,omitempty"`
	CreatedAtMs   int64                  `json:"created_at_ms"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Events        []TimelineEvent        `json:"events"`
}

// MalformedInput records an input that was dropped before projection
// because it could not be canonicalised into a meaningful event.
type MalformedInput struct {
	Reason string `json:"reason"`
	Tuple  string `json:"tuple"`
}

// TransitionViolation records a strictly impossible transition against
// already-committed state (e.g. a vote cast after a dispute resolved).
type TransitionViolation struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Event     string `json:"event"`
}

// Telemetry is the set of observations recorded during a projection
// run. None of these are errors (§7) — they are signals for operators.
type Telemetry struct {
	ProjectedEvents       int                    `json:"projected_events"`
	DuplicatesDropped     int                    `json:"duplicates_dropped"`
	UnknownEvents         []string               `json:"unknown_events"`
	MalformedInputs       []MalformedInput       `json:"malformed_inputs"`
	TransitionConflicts   []string               `json:"transition_conflicts"`
	TransitionViolations  []TransitionViolation  `json:"transition_violations"`
}

// Options configures a single projection run.
type Options struct {
	TraceID     string  // if empty, derived deterministically (§4.B.2)
	Seed        string
	SampleRate  float64 // defaults to 1.0 (always sampled) when zero
	NowMs       int64   // injected clock for CreatedAtMs; 0 means "caller doesn't care"
}

// Result is the output of a single call to Project.
type Result struct {
	Events    []TimelineEvent                      `json:"events"`
	Trace     TrajectoryTrace                       `json:"trace"`
	Telemetry Telemetry                             `json:"telemetry"`
	Disputes  map[string]taxonomy.DisputeState       `json:"disputes"`
}
