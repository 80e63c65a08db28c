// Package evidence builds incident summaries, validation reports,
// human-readable narratives, and sealed, independently verifiable
// evidence packs over a set of timeline records.
package evidence

import (
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

// IncidentSummary is a deterministic roll-up of a record set.
type IncidentSummary struct {
	ByEventType    map[string]int            `json:"by_event_type"`
	ByEventName    map[string]int            `json:"by_event_name"`
	ByTraceID      map[string]int            `json:"by_trace_id"`
	TaskIDs        []string                  `json:"task_ids"`
	DisputeIDs     []string                  `json:"dispute_ids"`
	Events         []projection.TimelineEvent `json:"events"`
}

// Validation is the result of running the replay engine over a
// record set for evidence purposes.
type Validation struct {
	Errors            []string `json:"errors"`
	Warnings          []string `json:"warnings"`
	DeterministicHash string   `json:"deterministic_hash"`
}

// Narrative is a human-readable rendering of the first 100 events
// plus the validation outcome, with stable anomaly references.
type Narrative struct {
	Lines             []string `json:"lines"`
	AnomalyIDs        []string `json:"anomaly_ids"`
	DeterministicHash string   `json:"deterministic_hash"`
}

// RedactionPolicy controls how a pack's contents are transformed
// before hashing, when sealing (§6.5, §4.G).
type RedactionPolicy struct {
	RemoveFields       []string `json:"remove_fields,omitempty"`
	MaskFields         []string `json:"mask_fields,omitempty"`
	TruncateActorKeys  int      `json:"truncate_actor_keys,omitempty"`
	HashSignatures     bool     `json:"hash_signatures,omitempty"`
}

// Manifest is the evidence pack's manifest.json.
type Manifest struct {
	SchemaVersion   int    `json:"schema_version"`
	Seed            string `json:"seed,omitempty"`
	QueryHash       string `json:"query_hash,omitempty"`
	MinSlot         uint64 `json:"min_slot"`
	MaxSlot         uint64 `json:"max_slot"`
	RuntimeVersion  string `json:"runtime_version"`
	SchemaHash      string `json:"schema_hash"`
	ToolFingerprint string `json:"tool_fingerprint"`
	Sealed          bool   `json:"sealed"`
	TimestampMs     int64  `json:"timestamp_ms"`
	CaseHash        string `json:"case_hash"`
	EventsHash      string `json:"events_hash"`
}

// EvidencePack is the three-part on-wire package (§6.5).
type EvidencePack struct {
	Manifest Manifest                   `json:"manifest"`
	Case     map[string]interface{}     `json:"case"`
	Events   []projection.TimelineEvent `json:"events"`
}

// BuildInput configures a single evidence pack build.
type BuildInput struct {
	CaseData        map[string]interface{}
	Events          []projection.TimelineEvent
	Query           string
	Sealed          bool
	RedactionPolicy RedactionPolicy
	Seed            string
	TimestampMs     int64
	RuntimeVersion  string
	ToolFingerprint string
}

// ManifestSchemaVersion is the current manifest.schema_version
// (§6.5): bumping it requires a new schema_hash, per the spec's
// open question on schema evolution.
const ManifestSchemaVersion = 1
