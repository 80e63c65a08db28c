package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Mindburn-Labs/replayspine/pkg/evidence"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
	"github.com/Mindburn-Labs/replayspine/pkg/toolerrors"
)

// toolRequestWire is the JSON shape POST /tool accepts, mirroring
// toolenvelope.Request's fields (§4.H, §6.6) except CurrentSlot, which
// the wire shape does not carry.
type toolRequestWire struct {
	Command     toolenvelope.Command   `json:"command"`
	BearerToken string                 `json:"bearer_token,omitempty"`
	SessionID   string                 `json:"session_id,omitempty"`
	Params      map[string]interface{} `json:"params"`
	Sections    []string               `json:"sections,omitempty"`
	Redactions  []string               `json:"redactions,omitempty"`
	SlotWindow  *struct {
		FromSlot uint64 `json:"from_slot"`
		ToSlot   uint64 `json:"to_slot"`
	} `json:"slot_window,omitempty"`
}

// runServeCmd implements `replayspine serve`: a single POST /tool
// endpoint that runs status and incident requests through the tool
// policy envelope against a shared timeline store. backfill and
// compare need local file inputs (a raw-event feed, two trace files)
// that don't fit a JSON request body, so the server surfaces those
// two as replay.invalid_input and directs callers to the CLI.
func runServeCmd(env *toolenvelope.Envelope, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		addr     string
		storeDSN string
	)
	cmd.StringVar(&addr, "addr", ":8088", "HTTP listen address")
	cmd.StringVar(&storeDSN, "store", "replayspine.timeline.json", "timeline store DSN or file path")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	store, err := openStore(context.Background(), storeDSN)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/tool", toolHandler(env, store, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	logger.Info("replayspine serve listening", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(stderr, "Error: server: %v\n", err)
		return 2
	}
	return 0
}

func toolHandler(env *toolenvelope.Envelope, store timeline.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var wire toolRequestWire
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			writeToolError(w, toolerrors.New("", toolerrors.CodeInvalidInput, "malformed JSON body: "+err.Error(), nil))
			return
		}

		req := toolenvelope.Request{
			Command:     wire.Command,
			BearerToken: wire.BearerToken,
			SessionID:   wire.SessionID,
			Params:      wire.Params,
			Sections:    wire.Sections,
			Redactions:  wire.Redactions,
		}
		if wire.SlotWindow != nil {
			req.SlotWindow = toolenvelope.SlotWindow{
				FromSlot: wire.SlotWindow.FromSlot,
				ToSlot:   wire.SlotWindow.ToSlot,
				HasRange: true,
			}
		}

		if wire.Command == toolenvelope.CommandBackfill || wire.Command == toolenvelope.CommandCompare {
			writeToolError(w, toolerrors.New(string(wire.Command), toolerrors.CodeInvalidInput,
				fmt.Sprintf("%s is not available over serve; run the replayspine %s CLI command", wire.Command, wire.Command), nil))
			return
		}

		resp, err := env.Execute(r.Context(), req, func(ctx context.Context) (map[string]interface{}, int, error) {
			switch wire.Command {
			case toolenvelope.CommandStatus:
				return statusBody(ctx, store)
			case toolenvelope.CommandIncident:
				return incidentBody(ctx, store, wire.Params)
			default:
				return nil, 0, fmt.Errorf("%s is not available over serve; run the replayspine %s CLI command", wire.Command, wire.Command)
			}
		})

		if err != nil {
			writeToolError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func statusBody(ctx context.Context, store timeline.Store) (map[string]interface{}, int, error) {
	cursor, err := store.GetCursor(ctx)
	if err != nil && err != timeline.ErrNotFound {
		return nil, 0, fmt.Errorf("status: load cursor: %w", err)
	}
	return map[string]interface{}{"store": cursor, "jobs": map[string]interface{}{}}, 0, nil
}

func incidentBody(ctx context.Context, store timeline.Store, params map[string]interface{}) (map[string]interface{}, int, error) {
	taskPda, _ := params["task_pda"].(string)
	disputePda, _ := params["dispute_pda"].(string)

	records, err := store.Query(ctx, timeline.Query{TaskPda: taskPda, DisputePda: disputePda})
	if err != nil {
		return nil, 0, fmt.Errorf("incident: query store: %w", err)
	}

	events := make([]projection.TimelineEvent, len(records))
	for i, r := range records {
		events[i] = r.Event
	}
	summary := evidence.SummariseIncident(events, nil)
	validation, err := evidence.ValidateIncident(summary.Events, false)
	if err != nil {
		return nil, 0, fmt.Errorf("incident: validate: %w", err)
	}
	narrative, err := evidence.BuildNarrative(summary.Events, validation)
	if err != nil {
		return nil, 0, fmt.Errorf("incident: narrative: %w", err)
	}

	return map[string]interface{}{
		"summary":   summary,
		"narrative": narrative,
	}, len(summary.Events), nil
}

func writeToolError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if toolErr, ok := err.(*toolerrors.Error); ok {
		switch toolErr.Kind {
		case toolerrors.KindInput:
			w.WriteHeader(http.StatusBadRequest)
		case toolerrors.KindPolicy:
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(toolErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": err.Error()})
}
