// Package compare implements the comparison service: it aligns a
// locally recorded trajectory trace against the canonical projected
// trace, produces a deterministic set of anomalies, and optionally
// emits metrics and alerts for each one.
package compare

import (
	"fmt"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

// Strictness controls whether a mismatch raises ReplayComparisonError.
type Strictness string

const (
	Strict  Strictness = "strict"
	Lenient Strictness = "lenient"
)

// Severity classifies an Anomaly.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// AnomalyCode is the closed set of comparison anomaly codes.
type AnomalyCode string

const (
	CodeHashMismatch      AnomalyCode = "hash_mismatch"
	CodeMissingEvent      AnomalyCode = "missing_event"
	CodeUnexpectedEvent   AnomalyCode = "unexpected_event"
	CodeTypeMismatch      AnomalyCode = "type_mismatch"
	CodeTaskIDMismatch    AnomalyCode = "task_id_mismatch"
	CodeDuplicateSequence AnomalyCode = "duplicate_sequence"
	CodeTransitionInvalid AnomalyCode = "transition_invalid"
)

// Anomaly is a single detected discrepancy.
type Anomaly struct {
	Code     AnomalyCode            `json:"code"`
	Severity Severity               `json:"severity"`
	Message  string                 `json:"message"`
	Context  map[string]interface{} `json:"context"`
	Expected interface{}            `json:"expected,omitempty"`
	Observed interface{}            `json:"observed,omitempty"`
}

func (a Anomaly) seq() int64 {
	if v, ok := a.Context["seq"]; ok {
		if n, ok := v.(int64); ok {
			return n
		}
		if n, ok := v.(uint32); ok {
			return int64(n)
		}
	}
	return -1
}

// Status summarises the comparison outcome.
type Status string

const (
	StatusClean      Status = "clean"
	StatusMismatched Status = "mismatched"
)

// Options configures a single comparison run.
type Options struct {
	Strictness      Strictness
	TaskPda         string
	DisputePda      string
	TraceID         string
	QueryDSL        string
	EmitOtel        bool
	Metrics         MetricsProvider
	AlertDispatcher AlertDispatcher
}

// Result is the output of a comparison run.
type Result struct {
	Strictness           Strictness `json:"strictness"`
	Status               Status     `json:"status"`
	DurationMs           int64      `json:"duration_ms"`
	LocalEventCount      int        `json:"local_event_count"`
	ProjectedEventCount  int        `json:"projected_event_count"`
	MismatchCount        int        `json:"mismatch_count"`
	MatchRate            float64    `json:"match_rate"`
	Anomalies            []Anomaly  `json:"anomalies"`
	TaskIDs              []string   `json:"task_ids"`
	DisputeIDs           []string   `json:"dispute_ids"`
	LocalReplayHash      string     `json:"local_replay"`
	ProjectedReplayHash  string     `json:"projected_replay"`
}

// Input is the pair of traces to compare.
type Input struct {
	Projected projection.TrajectoryTrace
	Local     projection.TrajectoryTrace
}

// ReplayComparisonError is raised when strictness is strict and the
// comparison found any mismatch, after telemetry/alerts have already
// been emitted for the underlying Result.
type ReplayComparisonError struct {
	Result Result
}

func (e *ReplayComparisonError) Error() string {
	return fmt.Sprintf("replay comparison found %d mismatch(es) (match_rate=%.4f)", e.Result.MismatchCount, e.Result.MatchRate)
}
