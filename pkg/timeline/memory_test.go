package timeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

func rec(seq uint32, slot uint64, sig, taskPda string, typ taxonomy.Type) Record {
	return Record{
		Event: projection.TimelineEvent{
			Seq: seq, Slot: slot, Signature: sig, TaskPda: taskPda, Type: typ,
			SourceEventName:     "taskCreated",
			SourceEventSequence: 0,
			Payload:             map[string]interface{}{},
		},
		ProjectionHash: "deadbeef",
	}
}

func TestMemoryStoreAppendIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered)
	res, err := store.Append(ctx, []Record{r, r})
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Duplicates)

	res2, err := store.Append(ctx, []Record{r})
	require.NoError(t, err)
	require.Equal(t, 0, res2.Processed)
	require.Equal(t, 1, res2.Duplicates)
}

func TestMemoryStoreQueryOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Append(ctx, []Record{
		rec(3, 30, "CCC", "task-1", taxonomy.TypeCompleted),
		rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered),
		rec(2, 20, "BBB", "task-1", taxonomy.TypeClaimed),
	})
	require.NoError(t, err)

	results, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, uint32(1), results[0].Event.Seq)
	require.Equal(t, uint32(2), results[1].Event.Seq)
	require.Equal(t, uint32(3), results[2].Event.Seq)
}

func TestMemoryStoreQueryFiltersByTask(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Append(ctx, []Record{
		rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered),
		rec(2, 20, "BBB", "task-2", taxonomy.TypeDiscovered),
	})
	require.NoError(t, err)

	results, err := store.Query(ctx, Query{TaskPda: "task-1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "task-1", results[0].Event.TaskPda)
}

func TestMemoryStoreCursorRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetCursor(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	c := Cursor{Slot: 42, Signature: "SIG"}
	require.NoError(t, store.SetCursor(ctx, c))

	got, err := store.GetCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, c, got)
}
