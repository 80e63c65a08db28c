package evidence

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

const narrativeEventLimit = 100

var seqInMessage = regexp.MustCompile(`seq=(\d+)`)

// BuildNarrative renders the first 100 events as
// "seq/slot/sig: name (type) | anomaly:<id>" lines — the anomaly
// suffix present only when a validation error/warning references that
// event's seq — followed by one "validation:<msg>" line per error and
// warning, in that order.
func BuildNarrative(events []projection.TimelineEvent, validation Validation) (Narrative, error) {
	bySeq := make(map[uint32]string)
	for i, msg := range append(append([]string{}, validation.Errors...), validation.Warnings...) {
		m := seqInMessage.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		seq, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		id := fmt.Sprintf("a%d", i)
		bySeq[uint32(seq)] = id
	}

	var lines []string
	var anomalyIDs []string

	limit := narrativeEventLimit
	if len(events) < limit {
		limit = len(events)
	}
	for _, ev := range events[:limit] {
		line := fmt.Sprintf("%d/%d/%s: %s (%s)", ev.Seq, ev.Slot, ev.Signature, ev.SourceEventName, ev.Type)
		if id, ok := bySeq[ev.Seq]; ok {
			line += " | anomaly:" + id
			anomalyIDs = append(anomalyIDs, id)
		}
		lines = append(lines, line)
	}

	for _, msg := range validation.Errors {
		lines = append(lines, "validation:"+msg)
	}
	for _, msg := range validation.Warnings {
		lines = append(lines, "validation:"+msg)
	}

	n := Narrative{Lines: lines, AnomalyIDs: anomalyIDs}
	hash, err := canonicalize.CanonicalHash(struct {
		Lines      []string `json:"lines"`
		AnomalyIDs []string `json:"anomaly_ids"`
	}{lines, anomalyIDs})
	if err != nil {
		return Narrative{}, err
	}
	n.DeterministicHash = hash
	return n, nil
}
