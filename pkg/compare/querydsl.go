package compare

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is the parsed form of the space-separated key=value query DSL.
type Filter struct {
	TaskPda      string
	DisputePda   string
	EventType    string
	SlotFrom     uint64
	HasSlotFrom  bool
	SlotTo       uint64
	HasSlotTo    bool
	Actor        string
	Wallet       string
	AnomalyCode  string
	Severity     string
}

var dslKeys = map[string]bool{
	"task_pda": true, "dispute_pda": true, "event_type": true,
	"slot_from": true, "slot_to": true, "actor": true, "wallet": true,
	"anomaly_code": true, "severity": true,
}

// ParseQuery parses the text query DSL (§6.4): space-separated
// key=value pairs over a fixed key set. An unrecognised key is
// rejected outright rather than silently ignored.
func ParseQuery(s string) (Filter, error) {
	var f Filter
	s = strings.TrimSpace(s)
	if s == "" {
		return f, nil
	}

	for _, tok := range strings.Fields(s) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			return Filter{}, fmt.Errorf("replay.invalid_input: malformed term %q", tok)
		}
		if !dslKeys[k] {
			return Filter{}, fmt.Errorf("replay.invalid_input: unknown key %q", k)
		}
		switch k {
		case "task_pda":
			f.TaskPda = v
		case "dispute_pda":
			f.DisputePda = v
		case "event_type":
			f.EventType = v
		case "slot_from":
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Filter{}, fmt.Errorf("replay.invalid_input: bad slot_from %q", v)
			}
			f.SlotFrom, f.HasSlotFrom = n, true
		case "slot_to":
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Filter{}, fmt.Errorf("replay.invalid_input: bad slot_to %q", v)
			}
			f.SlotTo, f.HasSlotTo = n, true
		case "actor":
			f.Actor = v
		case "wallet":
			f.Wallet = v
		case "anomaly_code":
			f.AnomalyCode = v
		case "severity":
			f.Severity = v
		}
	}
	return f, nil
}

// MatchesEvent reports whether an event satisfies the filter's
// task/dispute/type/slot constraints. Actor, wallet, anomaly_code and
// severity are ignored here; MatchesAnomaly checks anomaly_code and
// severity, and actor and wallet are parsed but not matched anywhere.
func (f Filter) MatchesEvent(taskPda, disputeID, eventType string, slot uint64) bool {
	if f.TaskPda != "" && f.TaskPda != taskPda {
		return false
	}
	if f.DisputePda != "" && f.DisputePda != disputeID {
		return false
	}
	if f.EventType != "" && f.EventType != eventType {
		return false
	}
	if f.HasSlotFrom && slot < f.SlotFrom {
		return false
	}
	if f.HasSlotTo && slot > f.SlotTo {
		return false
	}
	return true
}

// MatchesAnomaly reports whether an anomaly satisfies the filter's
// anomaly_code/severity constraints.
func (f Filter) MatchesAnomaly(code, severity string) bool {
	if f.AnomalyCode != "" && f.AnomalyCode != code {
		return false
	}
	if f.Severity != "" && f.Severity != severity {
		return false
	}
	return true
}
