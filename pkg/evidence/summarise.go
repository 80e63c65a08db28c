package evidence

import (
	"sort"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
)

// SummariseIncident deterministically counts records by source event
// type, source event name, and trace_id, and returns the ordered
// event list alongside sorted unique task/dispute ids.
func SummariseIncident(records []projection.TimelineEvent, filter func(projection.TimelineEvent) bool) IncidentSummary {
	sum := IncidentSummary{
		ByEventType: make(map[string]int),
		ByEventName: make(map[string]int),
		ByTraceID:   make(map[string]int),
	}

	taskSeen := make(map[string]bool)
	disputeSeen := make(map[string]bool)

	for _, ev := range records {
		if filter != nil && !filter(ev) {
			continue
		}
		sum.ByEventType[string(ev.Type)]++
		sum.ByEventName[ev.SourceEventName]++

		traceID := traceIDOf(ev)
		if traceID != "" {
			sum.ByTraceID[traceID]++
		}

		if ev.TaskPda != "" && !taskSeen[ev.TaskPda] {
			taskSeen[ev.TaskPda] = true
			sum.TaskIDs = append(sum.TaskIDs, ev.TaskPda)
		}
		if disputeID := disputeIDOf(ev); disputeID != "" && !disputeSeen[disputeID] {
			disputeSeen[disputeID] = true
			sum.DisputeIDs = append(sum.DisputeIDs, disputeID)
		}

		sum.Events = append(sum.Events, ev)
	}

	sort.Strings(sum.TaskIDs)
	sort.Strings(sum.DisputeIDs)
	sort.SliceStable(sum.Events, func(i, j int) bool { return sum.Events[i].Seq < sum.Events[j].Seq })

	return sum
}

func traceIDOf(ev projection.TimelineEvent) string {
	onchain, ok := ev.Payload["onchain"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := onchain["traceId"].(string)
	return id
}

func disputeIDOf(ev projection.TimelineEvent) string {
	onchain, ok := ev.Payload["onchain"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := onchain["disputeId"].(string)
	return id
}
