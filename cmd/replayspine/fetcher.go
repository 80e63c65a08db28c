package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Mindburn-Labs/replayspine/pkg/backfill"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
)

// fileFetcher implements backfill.Fetcher over a single JSON file
// holding the full raw event feed (a []projection.RawEvent array),
// sorted once at load time and paged by slot. It stands in for the
// live chain/indexer feed a production deployment would page against.
type fileFetcher struct {
	events []projection.RawEvent
}

func newFileFetcher(path string) (*fileFetcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fetcher: read %q: %w", path, err)
	}
	var events []projection.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("fetcher: parse %q: %w", path, err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Slot != events[j].Slot {
			return events[i].Slot < events[j].Slot
		}
		return events[i].SourceEventSequence < events[j].SourceEventSequence
	})
	return &fileFetcher{events: events}, nil
}

// FetchPage returns the next pageSize events with slot strictly
// greater than cursor.Slot (or every event at cursor.Slot whose
// signature sorts after cursor.Signature) and slot <= toSlot,
// reporting Done once it reaches the end of the feed or toSlot. The
// tie-break compares signatures only: events sharing both the
// cursor's slot and signature are not returned.
func (f *fileFetcher) FetchPage(ctx context.Context, cursor timeline.Cursor, toSlot uint64, pageSize int) (backfill.Page, error) {
	var page []projection.RawEvent
	for _, ev := range f.events {
		slot := uint64(ev.Slot)
		if slot < cursor.Slot {
			continue
		}
		if slot == cursor.Slot && ev.Signature <= cursor.Signature {
			continue
		}
		if toSlot > 0 && slot > toSlot {
			break
		}
		page = append(page, ev)
		if len(page) == pageSize {
			break
		}
	}

	next := cursor
	done := true
	if len(page) > 0 {
		last := page[len(page)-1]
		next = timeline.Cursor{Slot: uint64(last.Slot), Signature: last.Signature, EventName: last.EventName}
		for _, ev := range f.events {
			slot := uint64(ev.Slot)
			if slot < next.Slot || (slot == next.Slot && ev.Signature <= next.Signature) {
				continue
			}
			if toSlot > 0 && slot > toSlot {
				continue
			}
			done = false
			break
		}
	}

	return backfill.Page{Events: page, NextCursor: next, Done: done}, nil
}
