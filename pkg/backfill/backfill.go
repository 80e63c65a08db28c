// Package backfill drives paged historical ingestion: fetch a page of
// raw events, project it, append to the timeline store, and advance
// the cursor, stopping on completion or cancellation.
package backfill

import (
	"context"
	"fmt"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
)

// Page is a single page of raw events returned by a Fetcher.
type Page struct {
	Events     []projection.RawEvent
	NextCursor timeline.Cursor
	Done       bool
}

// Fetcher is the BackfillFetcher port (§6.1): it knows how to retrieve
// the next page of events from cursor up to (and not past) toSlot.
type Fetcher interface {
	FetchPage(ctx context.Context, cursor timeline.Cursor, toSlot uint64, pageSize int) (Page, error)
}

// TracePolicy controls how each page is projected — in particular
// whether every page shares one trace_id or derives its own.
type TracePolicy struct {
	TraceID    string
	SampleRate float64
}

// Options configures a single backfill run.
type Options struct {
	ToSlot      uint64
	PageSize    int
	Fetcher     Fetcher
	TracePolicy TracePolicy
}

// Result reports the outcome of a backfill run.
type Result struct {
	Processed  int
	Duplicates int
	Cursor     timeline.Cursor
}

// Run drives pages from opts.Fetcher through projection into store,
// advancing the cursor after each page commits. It stops when a page
// reports Done, when ctx is cancelled between pages, or on the first
// page/store failure — in every case the returned cursor (and the
// store's persisted cursor) reflect exactly the pages that committed,
// so a retried call resumes from there.
func Run(ctx context.Context, store timeline.Store, opts Options) (Result, error) {
	var res Result

	cursor, err := store.GetCursor(ctx)
	if err != nil && err != timeline.ErrNotFound {
		return res, fmt.Errorf("backfill: load cursor: %w", err)
	}
	res.Cursor = cursor

	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		page, err := opts.Fetcher.FetchPage(ctx, cursor, opts.ToSlot, opts.PageSize)
		if err != nil {
			return res, fmt.Errorf("backfill: fetch page: %w", err)
		}

		if len(page.Events) > 0 {
			projected, err := projection.Project(page.Events, projection.Options{
				TraceID:    opts.TracePolicy.TraceID,
				SampleRate: opts.TracePolicy.SampleRate,
			})
			if err != nil {
				return res, fmt.Errorf("backfill: project page: %w", err)
			}

			records := make([]timeline.Record, 0, len(projected.Events))
			for _, ev := range projected.Events {
				hash, err := projection.ProjectionHash(ev)
				if err != nil {
					return res, fmt.Errorf("backfill: hash event: %w", err)
				}
				records = append(records, timeline.Record{Event: ev, ProjectionHash: hash})
			}

			appendRes, err := store.Append(ctx, records)
			if err != nil {
				return res, fmt.Errorf("backfill: append page: %w", err)
			}
			res.Processed += appendRes.Processed
			res.Duplicates += appendRes.Duplicates
		}

		if err := store.SetCursor(ctx, page.NextCursor); err != nil {
			return res, fmt.Errorf("backfill: set cursor: %w", err)
		}
		cursor = page.NextCursor
		res.Cursor = cursor

		if page.Done {
			return res, nil
		}
	}
}
