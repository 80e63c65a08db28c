package backfill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
)

type fakeFetcher struct {
	pages []Page
	calls int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, cursor timeline.Cursor, toSlot uint64, pageSize int) (Page, error) {
	p := f.pages[f.calls]
	f.calls++
	return p, nil
}

func TestRunBackfillTwoPages(t *testing.T) {
	ctx := context.Background()
	store := timeline.NewMemoryStore()

	fetcher := &fakeFetcher{pages: []Page{
		{
			Events: []projection.RawEvent{
				{EventName: "taskCreated", Slot: 10, Signature: "AAA"},
			},
			NextCursor: timeline.Cursor{Slot: 10, Signature: "AAA"},
			Done:       false,
		},
		{
			Events: []projection.RawEvent{
				{EventName: "taskClaimed", Slot: 20, Signature: "BBB"},
			},
			NextCursor: timeline.Cursor{Slot: 20, Signature: "BBB"},
			Done:       true,
		},
	}}

	res, err := Run(ctx, store, Options{ToSlot: 100, PageSize: 10, Fetcher: fetcher, TracePolicy: TracePolicy{TraceID: "t"}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Processed)
	require.Equal(t, uint64(20), res.Cursor.Slot)
	require.Equal(t, 2, fetcher.calls)

	cur, err := store.GetCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(20), cur.Slot)

	results, err := store.Query(ctx, timeline.Query{})
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestRunBackfillRespectsCancellation(t *testing.T) {
	store := timeline.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{pages: []Page{{Done: true}}}
	res, err := Run(ctx, store, Options{Fetcher: fetcher})

	require.Error(t, err)
	require.Equal(t, 0, res.Processed)
	require.Equal(t, 0, fetcher.calls)
}

func TestRunBackfillDuplicatesAcrossPages(t *testing.T) {
	ctx := context.Background()
	store := timeline.NewMemoryStore()

	ev := projection.RawEvent{EventName: "taskCreated", Slot: 10, Signature: "AAA"}
	fetcher := &fakeFetcher{pages: []Page{
		{Events: []projection.RawEvent{ev}, NextCursor: timeline.Cursor{Slot: 10, Signature: "AAA"}, Done: false},
		{Events: []projection.RawEvent{ev}, NextCursor: timeline.Cursor{Slot: 10, Signature: "AAA"}, Done: true},
	}}

	res, err := Run(ctx, store, Options{Fetcher: fetcher})
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, 1, res.Duplicates)
}
