package toolenvelope

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditPhase is the lifecycle phase of a tool request audit record
// (§4.H rule 5: start on enter, finalise on exit with success/failure).
type AuditPhase string

const (
	AuditStart   AuditPhase = "start"
	AuditSuccess AuditPhase = "success"
	AuditFailure AuditPhase = "failure"
)

// AuditRecord is one JSON line in the audit stream, mirroring
// core/pkg/audit.Event's field shape.
type AuditRecord struct {
	ID         string        `json:"id"`
	RequestID  string        `json:"request_id"`
	Actor      string        `json:"actor"`
	Command    string        `json:"command"`
	Phase      AuditPhase    `json:"phase"`
	Timestamp  time.Time     `json:"timestamp"`
	DurationMs int64         `json:"duration_ms,omitempty"`
	Code       string        `json:"code,omitempty"`
}

// AuditLogger writes audit records as JSON lines to a configurable
// writer, mirroring core/pkg/audit.logger's mutex-guarded
// io.Writer sink.
type AuditLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	clock   func() time.Time
}

// NewAuditLogger creates a logger writing to os.Stdout when enabled
// is true, and discarding records otherwise (§6.7 REPLAY_AUDIT_ENABLED).
func NewAuditLogger(enabled bool) *AuditLogger {
	return NewAuditLoggerWithWriter(os.Stdout, enabled)
}

// NewAuditLoggerWithWriter creates a logger writing to w, for testing.
func NewAuditLoggerWithWriter(w io.Writer, enabled bool) *AuditLogger {
	if w == nil {
		w = os.Stdout
	}
	return &AuditLogger{writer: w, enabled: enabled, clock: time.Now}
}

// Start emits the "start" record for a request and returns its
// request ID, used to correlate the subsequent finalise record.
func (l *AuditLogger) Start(actor, command string) string {
	requestID := uuid.New().String()
	l.emit(AuditRecord{
		ID:        uuid.New().String(),
		RequestID: requestID,
		Actor:     actor,
		Command:   command,
		Phase:     AuditStart,
		Timestamp: l.clock(),
	})
	return requestID
}

// Finalize emits the success/failure record closing out requestID.
func (l *AuditLogger) Finalize(requestID, actor, command string, phase AuditPhase, duration time.Duration, code string) {
	l.emit(AuditRecord{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		Actor:      actor,
		Command:    command,
		Phase:      phase,
		Timestamp:  l.clock(),
		DurationMs: duration.Milliseconds(),
		Code:       code,
	})
}

func (l *AuditLogger) emit(rec AuditRecord) {
	if !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_, _ = l.writer.Write(append(data, '\n'))
}
