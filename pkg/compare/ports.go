package compare

// MetricsProvider is the optional telemetry sink (§6.3). Implementations
// wrap a metrics backend (e.g. OpenTelemetry) behind this narrow port so
// the comparison algorithm never imports a vendor SDK directly.
type MetricsProvider interface {
	Counter(name string, value int64, labels map[string]string)
	Histogram(name string, value float64, labels map[string]string)
}

// ReplayAlertContext is the diagnostic payload attached to one emitted
// alert, one per anomaly found by a comparison in either strictness
// mode.
type ReplayAlertContext struct {
	Code                AnomalyCode `json:"code"`
	Severity            Severity    `json:"severity"`
	Kind                string      `json:"kind"`
	Message             string      `json:"message"`
	SourceEventName     string      `json:"source_event_name,omitempty"`
	Signature           string      `json:"signature,omitempty"`
	TaskPda             string      `json:"task_pda,omitempty"`
	DisputePda          string      `json:"dispute_pda,omitempty"`
	TraceID             string      `json:"trace_id,omitempty"`
	SourceEventSequence int64       `json:"source_event_sequence,omitempty"`
	Slot                uint64      `json:"slot,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// AlertDispatcher is the optional alert sink (§6.3).
type AlertDispatcher interface {
	Emit(ctx ReplayAlertContext)
}
