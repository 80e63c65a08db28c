package projection

import (
	"fmt"
	"sort"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

type sortableInput struct {
	tuple canonicalize.Tuple
	raw   RawEvent
}

// Project canonicalises, orders, deduplicates, and state-machine
// validates a batch of raw protocol events, returning the projected
// timeline, its trajectory trace, and run telemetry. Project is a pure
// function of events and opts — no wall-clock or randomness leaks into
// the result other than opts.NowMs (used only for the trace's
// created_at_ms, never for ordering or hashing).
func Project(events []RawEvent, opts Options) (Result, error) {
	res := Result{
		Disputes: make(map[string]taxonomy.DisputeState),
	}

	sortable := make([]sortableInput, 0, len(events))
	for i, e := range events {
		if e.EventName == "" {
			res.Telemetry.MalformedInputs = append(res.Telemetry.MalformedInputs, MalformedInput{
				Reason: "empty_event_name",
				Tuple:  fmt.Sprintf("slot=%d sig=%q seq=%d", e.Slot, e.Signature, e.SourceEventSequence),
			})
			continue
		}
		tup := canonicalize.Canonicalise(canonicalize.RawInput{
			EventName:           e.EventName,
			Slot:                e.Slot,
			Signature:           e.Signature,
			SourceEventSequence: e.SourceEventSequence,
		}, uint32(i))
		sortable = append(sortable, sortableInput{tuple: tup, raw: e})
	}

	sort.SliceStable(sortable, func(i, j int) bool {
		return sortable[i].tuple.Less(sortable[j].tuple)
	})

	seen := make(map[string]bool, len(sortable))
	deduped := make([]sortableInput, 0, len(sortable))
	for _, s := range sortable {
		k := s.tuple.Key()
		if seen[k] {
			res.Telemetry.DuplicatesDropped++
			continue
		}
		seen[k] = true
		deduped = append(deduped, s)
	}

	var traceID string
	if opts.TraceID != "" {
		traceID = opts.TraceID
	} else if len(deduped) > 0 {
		traceID = deriveTraceID(deduped[0].tuple)
	} else {
		traceID = deriveTraceID(canonicalize.Tuple{})
	}

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}
	sampled := sampledDecision(traceID, sampleRate)

	taskState := make(map[string]taxonomy.TaskState)
	disputeState := make(map[string]taxonomy.DisputeState)

	var seq uint32
	for _, s := range deduped {
		fam, typ, ok := taxonomy.Lookup(s.raw.EventName)
		if !ok {
			res.Telemetry.UnknownEvents = append(res.Telemetry.UnknownEvents, s.raw.EventName)
			continue
		}

		seq++
		taskPda := stringField(s.raw.Event, "task_pda", "taskPda")
		disputeID := stringField(s.raw.Event, "dispute_id", "disputeId")

		applyTransitions(&res.Telemetry, taskState, disputeState, fam, typ, taskPda, disputeID)

		spanID := deriveSpanID(traceID, seq)
		onchain := OnchainMeta{
			EventName: s.raw.EventName,
			Signature: s.raw.Signature,
			Slot:      s.tuple.Slot,
			DisputeID: disputeID,
			TraceID:   traceID,
			SpanID:    spanID,
			Sampled:   &sampled,
		}

		payload := map[string]interface{}{
			"onchain": onchainToMap(onchain),
		}
		for k, v := range s.raw.Event {
			if k == "task_pda" || k == "taskPda" || k == "dispute_id" || k == "disputeId" {
				continue
			}
			payload[k] = v
		}

		ev := TimelineEvent{
			Seq:                 seq,
			Type:                typ,
			TaskPda:             taskPda,
			TimestampMs:         s.raw.TimestampMs,
			Payload:             payload,
			Slot:                s.tuple.Slot,
			Signature:           s.tuple.Signature,
			SourceEventName:     s.raw.EventName,
			SourceEventSequence: s.tuple.SourceEventSequence,
		}

		res.Events = append(res.Events, ev)
	}

	res.Telemetry.ProjectedEvents = len(res.Events)

	for id, st := range disputeState {
		res.Disputes[id] = st
	}

	res.Trace = TrajectoryTrace{
		SchemaVersion: 1,
		TraceID:       traceID,
		Seed:          opts.Seed,
		CreatedAtMs:   opts.NowMs,
		Events:        append([]TimelineEvent{}, res.Events...),
	}

	return res, nil
}

// applyTransitions drives the per-task and per-dispute lifecycle
// machines forward for a single accepted event, recording a
// transition_conflict (missing local prerequisite) or
// transition_violation (impossible against committed state) when the
// move is invalid. The event is never dropped for a bad transition —
// only the signal is recorded, per §4.B.1.
func applyTransitions(
	tel *Telemetry,
	taskState map[string]taxonomy.TaskState,
	disputeState map[string]taxonomy.DisputeState,
	fam taxonomy.Family,
	typ taxonomy.Type,
	taskPda, disputeID string,
) {
	switch fam {
	case taxonomy.FamilyTask:
		to, ok := taxonomy.TypeToTaskState(typ)
		if !ok {
			return
		}
		key := taskPda
		from, known := taskState[key]
		if !known {
			from = taxonomy.TaskStateNone
		}
		if !taxonomy.TaskTransitionAllowed(from, to) {
			msg := fmt.Sprintf("%s -> %s", from, to)
			if !known && from == taxonomy.TaskStateNone {
				tel.TransitionConflicts = append(tel.TransitionConflicts, msg)
			} else {
				tel.TransitionViolations = append(tel.TransitionViolations, TransitionViolation{
					FromState: string(from), ToState: string(to), Event: string(typ),
				})
			}
		}
		taskState[key] = to

	case taxonomy.FamilyDispute:
		to, ok := taxonomy.TypeToDisputeState(typ)
		if !ok {
			return
		}
		key := disputeID
		from, known := disputeState[key]
		if !known {
			from = taxonomy.DisputeStateNone
		}
		if !taxonomy.DisputeTransitionAllowed(from, to) {
			msg := fmt.Sprintf("%s -> %s", from, to)
			if !known && from == taxonomy.DisputeStateNone {
				tel.TransitionConflicts = append(tel.TransitionConflicts, msg)
			} else {
				tel.TransitionViolations = append(tel.TransitionViolations, TransitionViolation{
					FromState: string(from), ToState: string(to), Event: string(typ),
				})
			}
		}
		disputeState[key] = to
	}
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func onchainToMap(o OnchainMeta) map[string]interface{} {
	m := map[string]interface{}{
		"eventName": o.EventName,
		"signature": o.Signature,
		"slot":      canonicalize.EncodeLargeUint(o.Slot),
	}
	if o.DisputeID != "" {
		m["disputeId"] = o.DisputeID
	}
	if o.TraceID != "" {
		m["traceId"] = o.TraceID
	}
	if o.SpanID != "" {
		m["spanId"] = o.SpanID
	}
	if o.ParentSpanID != "" {
		m["parentSpanId"] = o.ParentSpanID
	}
	if o.Sampled != nil {
		m["sampled"] = *o.Sampled
	}
	return m
}
