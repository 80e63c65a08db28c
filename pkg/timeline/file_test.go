package timeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "timeline.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	res, err := store.Append(ctx, []Record{rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered)})
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)

	require.NoError(t, store.SetCursor(ctx, Cursor{Slot: 10, Signature: "AAA"}))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	results, err := reopened.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	cur, err := reopened.GetCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(10), cur.Slot)
}

func TestFileStoreAppendIdempotentAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "timeline.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	r := rec(1, 10, "AAA", "task-1", taxonomy.TypeDiscovered)
	_, err = store.Append(ctx, []Record{r})
	require.NoError(t, err)

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	res, err := reopened.Append(ctx, []Record{r})
	require.NoError(t, err)
	require.Equal(t, 0, res.Processed)
	require.Equal(t, 1, res.Duplicates)
}
