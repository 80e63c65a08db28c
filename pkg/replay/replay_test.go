package replay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

func trace(events ...projection.TimelineEvent) projection.TrajectoryTrace {
	return projection.TrajectoryTrace{SchemaVersion: 1, TraceID: "t", Events: events}
}

func TestReplayHappyPath(t *testing.T) {
	tr := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeDiscovered, TaskPda: "task-1"},
		projection.TimelineEvent{Seq: 2, Type: taxonomy.TypeClaimed, TaskPda: "task-1"},
		projection.TimelineEvent{Seq: 3, Type: taxonomy.TypeCompleted, TaskPda: "task-1"},
	)

	res, err := Replay(tr, Options{StrictMode: true})
	require.NoError(t, err)
	require.Equal(t, taxonomy.TaskStateCompleted, res.Tasks["task-1"])
	require.Empty(t, res.Errors)
	require.Empty(t, res.Warnings)
	require.Equal(t, 3, res.Summary.TotalEvents)
	require.Len(t, res.DeterministicHash, 64)
}

func TestReplayStrictModeConflictIsError(t *testing.T) {
	tr := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeCompleted, TaskPda: "task-2"},
	)

	res, err := Replay(tr, Options{StrictMode: true})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Empty(t, res.Warnings)
}

func TestReplayLenientModeConflictIsWarning(t *testing.T) {
	tr := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeCompleted, TaskPda: "task-2"},
	)

	res, err := Replay(tr, Options{StrictMode: false})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
}

func TestReplayDisputeLifecycle(t *testing.T) {
	tr := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeDisputeInitiated, Payload: map[string]interface{}{
			"onchain": map[string]interface{}{"disputeId": "d-1"},
		}},
		projection.TimelineEvent{Seq: 2, Type: taxonomy.TypeDisputeVoteCast, Payload: map[string]interface{}{
			"onchain": map[string]interface{}{"disputeId": "d-1"},
		}},
		projection.TimelineEvent{Seq: 3, Type: taxonomy.TypeDisputeResolved, Payload: map[string]interface{}{
			"onchain": map[string]interface{}{"disputeId": "d-1"},
		}},
	)

	res, err := Replay(tr, Options{StrictMode: true})
	require.NoError(t, err)
	require.Equal(t, taxonomy.DisputeStateResolved, res.Disputes["d-1"])
	require.Empty(t, res.Errors)
}

// P4: deterministic_hash is a pure function of the event sequence; it
// does not change across repeated folds of the same trace.
func TestReplayDeterministicHashIsPure(t *testing.T) {
	tr := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeDiscovered, TaskPda: "task-1"},
		projection.TimelineEvent{Seq: 2, Type: taxonomy.TypeClaimed, TaskPda: "task-1"},
	)

	r1, err := Replay(tr, Options{StrictMode: true})
	require.NoError(t, err)
	r2, err := Replay(tr, Options{StrictMode: true})
	require.NoError(t, err)

	require.Equal(t, r1.DeterministicHash, r2.DeterministicHash)
}

// P4 (continued): the hash only depends on the fold's outcome, not on
// Go map iteration order, since CanonicalHash sorts object keys.
func TestReplayDeterministicHashStableAcrossTasks(t *testing.T) {
	tr1 := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeDiscovered, TaskPda: "a"},
		projection.TimelineEvent{Seq: 2, Type: taxonomy.TypeDiscovered, TaskPda: "b"},
	)
	tr2 := trace(
		projection.TimelineEvent{Seq: 1, Type: taxonomy.TypeDiscovered, TaskPda: "a"},
		projection.TimelineEvent{Seq: 2, Type: taxonomy.TypeDiscovered, TaskPda: "b"},
	)

	r1, err := Replay(tr1, Options{StrictMode: true})
	require.NoError(t, err)
	r2, err := Replay(tr2, Options{StrictMode: true})
	require.NoError(t, err)

	require.Equal(t, r1.DeterministicHash, r2.DeterministicHash)
}
