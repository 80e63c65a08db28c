// Package toolerrors defines the closed error taxonomy returned at the
// tool-envelope boundary (spec §7), modeled on the teacher's
// runtime.ClassifiedError/ErrorCategory shape but specialized to the
// fixed "replay.*" code set.
package toolerrors

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a tool error into one of four buckets (§7).
type Kind string

const (
	KindInput   Kind = "input"
	KindPolicy  Kind = "policy"
	KindRuntime Kind = "runtime"
	KindOp      Kind = "operation"
)

// Code enumerates the closed set of "replay.*" error codes.
type Code string

const (
	CodeInvalidInput      Code = "replay.invalid_input"
	CodeMissingFilter     Code = "replay.missing_filter"
	CodeAccessDenied      Code = "replay.access_denied"
	CodeConcurrencyLimit  Code = "replay.concurrency_limit"
	CodeSlotWindow        Code = "replay.slot_window_exceeded"
	CodeEventCapExceeded  Code = "replay.event_cap_exceeded"
	CodeCancelled         Code = "replay.cancelled"
	CodeTimeout           Code = "replay.timeout"
	CodeToolError         Code = "replay.tool_error"
	CodeBackfillFailed    Code = "replay.backfill_failed"
	CodeCompareFailed     Code = "replay.compare_failed"
	CodeIncidentFailed    Code = "replay.incident_failed"
	CodeStatusFailed      Code = "replay.status_failed"
	CodeOutputValidation  Code = "replay.output_validation_failed"
)

// retriable mirrors §7's table exactly: concurrency_limit, cancelled,
// timeout, tool_error, and every "_failed" operation code are
// retriable; every input/policy code is not.
var retriable = map[Code]bool{
	CodeConcurrencyLimit: true,
	CodeCancelled:        true,
	CodeTimeout:          true,
	CodeToolError:        true,
	CodeBackfillFailed:   true,
	CodeCompareFailed:    true,
	CodeIncidentFailed:   true,
	CodeStatusFailed:     true,
	CodeOutputValidation: true,
}

var kindOf = map[Code]Kind{
	CodeInvalidInput:     KindInput,
	CodeMissingFilter:    KindInput,
	CodeAccessDenied:     KindPolicy,
	CodeConcurrencyLimit: KindPolicy,
	CodeSlotWindow:       KindPolicy,
	CodeEventCapExceeded: KindPolicy,
	CodeCancelled:        KindRuntime,
	CodeTimeout:          KindRuntime,
	CodeToolError:        KindRuntime,
	CodeBackfillFailed:   KindOp,
	CodeCompareFailed:    KindOp,
	CodeIncidentFailed:   KindOp,
	CodeStatusFailed:     KindOp,
	CodeOutputValidation: KindOp,
}

// Error is the tool-envelope error shape (§4.H): {status:"error",
// command, schema, code, message, details?, retriable}.
type Error struct {
	Command   string      `json:"command"`
	Schema    string      `json:"schema,omitempty"`
	Code      Code        `json:"code"`
	Kind      Kind        `json:"-"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retriable bool        `json:"retriable"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an Error for code, deriving Kind and Retriable from
// the fixed tables in §7.
func New(command string, code Code, message string, details interface{}) *Error {
	return &Error{
		Command:   command,
		Code:      code,
		Kind:      kindOf[code],
		Message:   message,
		Details:   details,
		Retriable: retriable[code],
	}
}

// MarshalJSON includes the fixed "status":"error" discriminator the
// wire shape requires.
func (e *Error) MarshalJSON() ([]byte, error) {
	type wire struct {
		Status    string      `json:"status"`
		Command   string      `json:"command"`
		Schema    string      `json:"schema,omitempty"`
		Code      Code        `json:"code"`
		Message   string      `json:"message"`
		Details   interface{} `json:"details,omitempty"`
		Retriable bool        `json:"retriable"`
	}
	return json.Marshal(wire{
		Status:    "error",
		Command:   e.Command,
		Schema:    e.Schema,
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		Retriable: e.Retriable,
	})
}
