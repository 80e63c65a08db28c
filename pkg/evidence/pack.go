package evidence

import (
	"fmt"
	"sort"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

// BuildEvidencePack assembles a manifest/case/events triple. When
// Sealed is true, the configured redaction policy is applied to both
// the case and the events before they are stored and before they are
// hashed, so a sealed pack's hashes only ever attest to the redacted
// view — never to data that was stripped out.
func BuildEvidencePack(in BuildInput) (EvidencePack, error) {
	caseData := in.CaseData
	events := in.Events

	if in.Sealed {
		if red, ok := ApplyRedaction(caseData, in.RedactionPolicy).(map[string]interface{}); ok {
			caseData = red
		}
		redactedEvents := make([]projection.TimelineEvent, len(events))
		for i, ev := range events {
			redactedEvents[i] = redactEvent(ev, in.RedactionPolicy)
		}
		events = redactedEvents
	}

	caseHash, err := canonicalize.CanonicalHash(caseData)
	if err != nil {
		return EvidencePack{}, fmt.Errorf("evidence: hash case: %w", err)
	}
	eventsHash, err := canonicalize.CanonicalHash(events)
	if err != nil {
		return EvidencePack{}, fmt.Errorf("evidence: hash events: %w", err)
	}
	queryHash := ""
	if in.Query != "" {
		queryHash, err = canonicalize.CanonicalHash(in.Query)
		if err != nil {
			return EvidencePack{}, fmt.Errorf("evidence: hash query: %w", err)
		}
	}

	minSlot, maxSlot := slotRange(events)

	manifest := Manifest{
		SchemaVersion:   ManifestSchemaVersion,
		Seed:            in.Seed,
		QueryHash:       queryHash,
		MinSlot:         minSlot,
		MaxSlot:         maxSlot,
		RuntimeVersion:  in.RuntimeVersion,
		SchemaHash:      schemaHash(),
		ToolFingerprint: in.ToolFingerprint,
		Sealed:          in.Sealed,
		TimestampMs:     in.TimestampMs,
		CaseHash:        caseHash,
		EventsHash:      eventsHash,
	}

	return EvidencePack{Manifest: manifest, Case: caseData, Events: events}, nil
}

// VerifyPack recomputes the case and events hashes from the pack's
// actual content and compares them against the manifest.
func VerifyPack(pack EvidencePack) (bool, []string) {
	var errs []string

	caseHash, err := canonicalize.CanonicalHash(pack.Case)
	if err != nil {
		return false, []string{fmt.Sprintf("hash case: %v", err)}
	}
	if caseHash != pack.Manifest.CaseHash {
		errs = append(errs, "case_hash mismatch")
	}

	eventsHash, err := canonicalize.CanonicalHash(pack.Events)
	if err != nil {
		return false, []string{fmt.Sprintf("hash events: %v", err)}
	}
	if eventsHash != pack.Manifest.EventsHash {
		errs = append(errs, "events_hash mismatch")
	}

	return len(errs) == 0, errs
}

func redactEvent(ev projection.TimelineEvent, policy RedactionPolicy) projection.TimelineEvent {
	out := ev
	if red, ok := ApplyRedaction(ev.Payload, policy).(map[string]interface{}); ok {
		out.Payload = red
	}
	if policy.HashSignatures {
		out.Signature = hashString(out.Signature)
	}
	for _, f := range policy.MaskFields {
		if f == "signature" {
			out.Signature = redactedMask
		}
	}
	return out
}

func slotRange(events []projection.TimelineEvent) (uint64, uint64) {
	if len(events) == 0 {
		return 0, 0
	}
	min, max := events[0].Slot, events[0].Slot
	for _, ev := range events[1:] {
		if ev.Slot < min {
			min = ev.Slot
		}
		if ev.Slot > max {
			max = ev.Slot
		}
	}
	return min, max
}

// schemaHash is a fixed digest of the canonicalisation/event schema
// this build implements; it changes only when the event
// canonicalisation rules change (§6.5), not per pack.
func schemaHash() string {
	h, err := canonicalize.CanonicalHash(struct {
		SchemaVersion int      `json:"schema_version"`
		Fields        []string `json:"fields"`
	}{
		SchemaVersion: ManifestSchemaVersion,
		Fields:        sortedTimelineEventFields(),
	})
	if err != nil {
		return ""
	}
	return h
}

func sortedTimelineEventFields() []string {
	fields := []string{"seq", "type", "task_pda", "timestamp_ms", "payload", "slot", "signature", "source_event_name", "source_event_sequence"}
	sort.Strings(fields)
	return fields
}
