package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Mindburn-Labs/replayspine/pkg/evidence"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/timeline"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
)

// runIncidentCmd implements `replayspine incident`: it queries the
// timeline store for a task/dispute/slot range, summarises and
// validates the matching history, renders a narrative, and — when
// --out is given — seals the result into an on-disk evidence pack.
func runIncidentCmd(env *toolenvelope.Envelope, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("incident", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		storeDSN    string
		taskPda     string
		disputePda  string
		fromSlot    uint64
		toSlot      uint64
		hasToSlot   bool
		strict      bool
		sealed      bool
		outDir      string
		sessionID   string
		jsonOut     bool
	)
	cmd.StringVar(&storeDSN, "store", "replayspine.timeline.json", "timeline store DSN or file path")
	cmd.StringVar(&taskPda, "task-pda", "", "restrict to this task PDA")
	cmd.StringVar(&disputePda, "dispute-pda", "", "restrict to this dispute PDA")
	cmd.Uint64Var(&fromSlot, "from-slot", 0, "lower slot bound (inclusive)")
	cmd.Uint64Var(&toSlot, "to-slot", 0, "upper slot bound (inclusive); unset means no upper bound")
	cmd.BoolVar(&strict, "strict", false, "treat lifecycle warnings as validation errors")
	cmd.BoolVar(&sealed, "seal", false, "seal the evidence pack, applying the default redaction policy before hashing")
	cmd.StringVar(&outDir, "out", "", "directory to write manifest.json/case.json/events.jsonl into (enables pack building)")
	cmd.StringVar(&sessionID, "session-id", "", "actor identity for the policy envelope")
	cmd.BoolVar(&jsonOut, "json", true, "emit the tool envelope response as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	hasToSlot = toSlot > 0

	ctx := context.Background()
	store, err := openStore(ctx, storeDSN)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer store.Close()

	req := toolenvelope.Request{
		Command:   toolenvelope.CommandIncident,
		SessionID: sessionID,
		Params: map[string]interface{}{
			"task_pda":    taskPda,
			"dispute_pda": disputePda,
		},
		SlotWindow: toolenvelope.SlotWindow{FromSlot: fromSlot, ToSlot: toSlot, HasRange: hasToSlot},
	}

	resp, err := env.Execute(ctx, req, func(ctx context.Context) (map[string]interface{}, int, error) {
		records, err := store.Query(ctx, timeline.Query{
			TaskPda:    taskPda,
			DisputePda: disputePda,
			FromSlot:   fromSlot,
			ToSlot:     toSlot,
			HasToSlot:  hasToSlot,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("incident: query store: %w", err)
		}

		events := make([]projection.TimelineEvent, len(records))
		for i, r := range records {
			events[i] = r.Event
		}
		summary := evidence.SummariseIncident(events, nil)

		validation, err := evidence.ValidateIncident(summary.Events, strict)
		if err != nil {
			return nil, 0, fmt.Errorf("incident: validate: %w", err)
		}

		narrative, err := evidence.BuildNarrative(summary.Events, validation)
		if err != nil {
			return nil, 0, fmt.Errorf("incident: build narrative: %w", err)
		}

		logger.Info("incident summarised", "task_pda", taskPda, "dispute_pda", disputePda, "event_count", len(summary.Events), "errors", len(validation.Errors))

		out := map[string]interface{}{
			"summary":   summary,
			"narrative": narrative,
		}

		if outDir != "" {
			pack, err := evidence.BuildEvidencePack(evidence.BuildInput{
				CaseData: map[string]interface{}{
					"task_pda":    taskPda,
					"dispute_pda": disputePda,
					"validation":  validation,
				},
				Events:          summary.Events,
				Sealed:          sealed,
				RedactionPolicy: evidence.RedactionPolicy{HashSignatures: true, TruncateActorKeys: 6},
				TimestampMs:     time.Now().UnixMilli(),
				RuntimeVersion:  "replayspine/0.1",
				ToolFingerprint: "cmd/replayspine/incident",
			})
			if err != nil {
				return nil, 0, fmt.Errorf("incident: build evidence pack: %w", err)
			}
			if err := writePack(outDir, pack); err != nil {
				return nil, 0, fmt.Errorf("incident: write evidence pack: %w", err)
			}
			out["pack"] = map[string]interface{}{"manifest": pack.Manifest, "dir": outDir}
		}

		return out, len(summary.Events), nil
	})

	return emitResponse(stdout, stderr, resp, err, jsonOut)
}

func writePack(dir string, pack evidence.EvidencePack) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	wire, err := evidence.EncodeWireFiles(pack)
	if err != nil {
		return err
	}
	files := map[string][]byte{
		"manifest.json": wire.ManifestJSON,
		"case.json":     wire.CaseJSON,
		"events.jsonl":  wire.EventsJSONL,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
