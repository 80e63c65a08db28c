package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/Mindburn-Labs/replayspine/pkg/backfill"
	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
)

// runBackfillCmd implements `replayspine backfill`: it pages a local
// raw-event feed through projection into the timeline store, advancing
// the store's cursor, all under the tool policy envelope.
func runBackfillCmd(env *toolenvelope.Envelope, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("backfill", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		storeDSN   string
		feedPath   string
		toSlot     uint64
		pageSize   int
		traceID    string
		sampleRate float64
		sessionID  string
		jsonOut    bool
	)
	cmd.StringVar(&storeDSN, "store", "replayspine.timeline.json", "timeline store DSN or file path")
	cmd.StringVar(&feedPath, "feed", "", "path to a JSON array of raw events to page through (REQUIRED)")
	cmd.Uint64Var(&toSlot, "to-slot", 0, "stop paging once this slot is reached (0 = no upper bound)")
	cmd.IntVar(&pageSize, "page-size", 500, "events fetched per page")
	cmd.StringVar(&traceID, "trace-id", "", "trace_id stamped on every page's projection (blank = derive per page)")
	cmd.Float64Var(&sampleRate, "sample-rate", 1.0, "projection sample rate")
	cmd.StringVar(&sessionID, "session-id", "", "actor identity for the policy envelope")
	cmd.BoolVar(&jsonOut, "json", true, "emit the tool envelope response as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if feedPath == "" {
		fmt.Fprintln(stderr, "Error: --feed is required")
		return 2
	}

	ctx := context.Background()
	store, err := openStore(ctx, storeDSN)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	fetcher, err := newFileFetcher(feedPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cursor, err := store.GetCursor(ctx)
	if err != nil && err != timeline.ErrNotFound {
		fmt.Fprintf(stderr, "Error: load cursor: %v\n", err)
		return 2
	}
	currentSlot := cursor.Slot

	req := toolenvelope.Request{
		Command:   toolenvelope.CommandBackfill,
		SessionID: sessionID,
		Params: map[string]interface{}{
			"to_slot":   toSlot,
			"page_size": pageSize,
		},
		SlotWindow:  toolenvelope.SlotWindow{FromSlot: cursor.Slot, ToSlot: toSlot, HasRange: toSlot > 0},
		CurrentSlot: &currentSlot,
	}

	resp, err := env.Execute(ctx, req, func(ctx context.Context) (map[string]interface{}, int, error) {
		res, err := backfill.Run(ctx, store, backfill.Options{
			ToSlot:   toSlot,
			PageSize: pageSize,
			Fetcher:  fetcher,
			TracePolicy: backfill.TracePolicy{
				TraceID:    traceID,
				SampleRate: sampleRate,
			},
		})
		if err != nil {
			return nil, 0, err
		}
		logger.Info("backfill complete", "processed", res.Processed, "duplicates", res.Duplicates, "cursor_slot", res.Cursor.Slot)
		return map[string]interface{}{
			"summary": map[string]interface{}{
				"processed":  res.Processed,
				"duplicates": res.Duplicates,
			},
			"cursor": res.Cursor,
		}, res.Processed, nil
	})

	return emitResponse(stdout, stderr, resp, err, jsonOut)
}

func emitResponse(stdout, stderr io.Writer, resp *toolenvelope.Response, err error, jsonOut bool) int {
	if err != nil {
		if jsonOut {
			data, _ := json.MarshalIndent(err, "", "  ")
			fmt.Fprintln(stdout, string(data))
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	data, marshalErr := json.MarshalIndent(resp, "", "  ")
	if marshalErr != nil {
		fmt.Fprintf(stderr, "Error: marshal response: %v\n", marshalErr)
		return 2
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
