package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
)

// runStatusCmd implements `replayspine status`: it reports the
// timeline store's cursor and the envelope's current in-flight job
// count, both read-only and cheap enough to run with no slot window.
func runStatusCmd(env *toolenvelope.Envelope, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("status", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		storeDSN  string
		sessionID string
		jsonOut   bool
	)
	cmd.StringVar(&storeDSN, "store", "replayspine.timeline.json", "timeline store DSN or file path")
	cmd.StringVar(&sessionID, "session-id", "", "actor identity for the policy envelope")
	cmd.BoolVar(&jsonOut, "json", true, "emit the tool envelope response as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	store, err := openStore(ctx, storeDSN)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	req := toolenvelope.Request{
		Command:   toolenvelope.CommandStatus,
		SessionID: sessionID,
		Params:    map[string]interface{}{},
	}

	resp, err := env.Execute(ctx, req, func(ctx context.Context) (map[string]interface{}, int, error) {
		cursor, err := store.GetCursor(ctx)
		if err != nil && err != timeline.ErrNotFound {
			return nil, 0, fmt.Errorf("status: load cursor: %w", err)
		}

		jobs := map[string]interface{}{}
		if inFlight, ok := env.InFlight(); ok {
			jobs["in_flight"] = inFlight
		}

		logger.Debug("status", "cursor_slot", cursor.Slot)
		return map[string]interface{}{
			"store": cursor,
			"jobs":  jobs,
		}, 0, nil
	})

	return emitResponse(stdout, stderr, resp, err, jsonOut)
}
