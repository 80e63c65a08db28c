package toolenvelope

import "context"

// Command is one of the four tool surfaces (§6.6).
type Command string

const (
	CommandBackfill Command = "backfill"
	CommandCompare  Command = "compare"
	CommandIncident Command = "incident"
	CommandStatus   Command = "status"
)

// outputSchemaOf is the stable output-schema identifier per command
// (§6.6).
var outputSchemaOf = map[Command]string{
	CommandBackfill: "replay.backfill.output.v1",
	CommandCompare:  "replay.compare.output.v1",
	CommandIncident: "replay.incident.output.v1",
	CommandStatus:   "replay.status.output.v1",
}

// allowedSectionsOf is the set of output sections each command may
// populate (§4.H rule 9).
var allowedSectionsOf = map[Command][]string{
	CommandBackfill: {"summary", "cursor"},
	CommandCompare:  {"summary", "anomalies", "events"},
	CommandIncident: {"summary", "narrative", "pack"},
	CommandStatus:   {"store", "jobs"},
}

// SlotWindow is the optional (from_slot, to_slot) pair checked by
// §4.H rule 6.
type SlotWindow struct {
	FromSlot uint64
	ToSlot   uint64
	HasRange bool
}

// Request is a tool invocation entering the envelope.
type Request struct {
	Command      Command
	BearerToken  string
	SessionID    string
	Params       map[string]interface{}
	Sections     []string
	Redactions   []string
	SlotWindow   SlotWindow
	CurrentSlot  *uint64
}

// Body is the tool's actual logic, invoked once the envelope has
// passed every pre-flight check. It returns the raw output tree and
// the number of result events produced, used for the post-flight
// event cap (§4.H rule 8).
type Body func(ctx context.Context) (output map[string]interface{}, eventCount int, err error)

// Response is the success-shape wire envelope (§6.6).
type Response struct {
	Status           string                 `json:"status"`
	Command          Command                `json:"command"`
	Schema           string                 `json:"schema"`
	Sections         map[string]interface{} `json:"sections"`
	Redactions       []string               `json:"redactions"`
	CommandParams    map[string]interface{} `json:"command_params"`
	Truncated        bool                   `json:"truncated"`
	TruncationReason string                 `json:"truncation_reason,omitempty"`
}
