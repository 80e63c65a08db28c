package projection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustProject(t *testing.T, events []RawEvent) Result {
	t.Helper()
	res, err := Project(events, Options{TraceID: "fixed-trace-for-test"})
	require.NoError(t, err)
	return res
}

// S1: Deterministic three-event happy path.
func TestHappyPathThreeEvents(t *testing.T) {
	events := []RawEvent{
		{EventName: "taskCreated", Slot: 10, Signature: "AAA", SourceEventSequence: 0},
		{EventName: "taskClaimed", Slot: 10, Signature: "AAA", SourceEventSequence: 1},
		{EventName: "taskCompleted", Slot: 100, Signature: "ZZZ", SourceEventSequence: 0},
	}
	res := mustProject(t, events)

	require.Len(t, res.Events, 3)
	require.Equal(t, "discovered", string(res.Events[0].Type))
	require.Equal(t, "claimed", string(res.Events[1].Type))
	require.Equal(t, "completed", string(res.Events[2].Type))
	require.Equal(t, []uint32{1, 2, 3}, []uint32{res.Events[0].Seq, res.Events[1].Seq, res.Events[2].Seq})
	require.Empty(t, res.Telemetry.UnknownEvents)
	require.Empty(t, res.Telemetry.TransitionConflicts)
	require.Empty(t, res.Telemetry.TransitionViolations)
}

// S2: Dedup.
func TestDedup(t *testing.T) {
	ev := RawEvent{EventName: "taskCreated", Slot: 10, Signature: "AAA", SourceEventSequence: 0}
	res := mustProject(t, []RawEvent{ev, ev, ev})

	require.Len(t, res.Events, 1)
	require.Equal(t, 1, res.Telemetry.ProjectedEvents)
	require.Equal(t, 2, res.Telemetry.DuplicatesDropped)
}

// S3: Unknown event.
func TestUnknownEvent(t *testing.T) {
	res := mustProject(t, []RawEvent{{EventName: "unknownEventFromProgram", Slot: 1, Signature: "X"}})

	require.Equal(t, []string{"unknownEventFromProgram"}, res.Telemetry.UnknownEvents)
	require.Equal(t, 0, res.Telemetry.ProjectedEvents)
	require.Empty(t, res.Events)
}

// S4: Transition conflict.
func TestTransitionConflict(t *testing.T) {
	res := mustProject(t, []RawEvent{{EventName: "taskCompleted", Slot: 5, Signature: "Q"}})

	require.Len(t, res.Events, 1)
	require.Len(t, res.Telemetry.TransitionConflicts, 1)
	require.Contains(t, res.Telemetry.TransitionConflicts[0], "none -> completed")
}

// P1: order independence.
func TestOrderIndependence(t *testing.T) {
	events := []RawEvent{
		{EventName: "taskCreated", Slot: 10, Signature: "AAA", SourceEventSequence: 0},
		{EventName: "taskClaimed", Slot: 10, Signature: "AAA", SourceEventSequence: 1},
		{EventName: "taskCompleted", Slot: 100, Signature: "ZZZ", SourceEventSequence: 0},
		{EventName: "disputeInitiated", Slot: 50, Signature: "MMM", SourceEventSequence: 0},
	}

	base := mustProject(t, events)

	shuffled := make([]RawEvent, len(events))
	copy(shuffled, events)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	other := mustProject(t, shuffled)

	require.Equal(t, base.Events, other.Events)
	require.Equal(t, base.Trace.Events, other.Trace.Events)
}

// P2: project(E ++ E) = project(E) in events; duplicates counted.
func TestDoubledInputDedup(t *testing.T) {
	events := []RawEvent{
		{EventName: "taskCreated", Slot: 10, Signature: "AAA", SourceEventSequence: 0},
		{EventName: "taskClaimed", Slot: 10, Signature: "AAA", SourceEventSequence: 1},
	}
	doubled := append(append([]RawEvent{}, events...), events...)

	single := mustProject(t, events)
	twice := mustProject(t, doubled)

	require.Equal(t, single.Events, twice.Events)
	require.Equal(t, len(events), twice.Telemetry.DuplicatesDropped)
	require.Equal(t, len(events), twice.Telemetry.ProjectedEvents)
}

// P3: projection_hash is stable across calls and is a 64-character
// (SHA-256 hex) digest.
func TestProjectionHashStable(t *testing.T) {
	res := mustProject(t, []RawEvent{{EventName: "taskCreated", Slot: 1, Signature: "X"}})
	require.Len(t, res.Events, 1)

	h1, err := ProjectionHash(res.Events[0])
	require.NoError(t, err)
	h2, err := ProjectionHash(res.Events[0])
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestMalformedInputDropped(t *testing.T) {
	res := mustProject(t, []RawEvent{{EventName: "", Slot: 1, Signature: "X"}})
	require.Empty(t, res.Events)
	require.Len(t, res.Telemetry.MalformedInputs, 1)
	require.Equal(t, "empty_event_name", res.Telemetry.MalformedInputs[0].Reason)
}
