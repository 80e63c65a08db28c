package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Mindburn-Labs/replayspine/pkg/compare"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
)

// runCompareCmd implements `replayspine compare`: it loads a locally
// recorded trace and the canonical projected trace from two JSON
// files and runs them through the comparison engine under the tool
// policy envelope.
func runCompareCmd(env *toolenvelope.Envelope, logger *slog.Logger, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("compare", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		localPath     string
		projectedPath string
		query         string
		strictMode    bool
		sessionID     string
		jsonOut       bool
		otelEndpoint  string
	)
	cmd.StringVar(&localPath, "local", "", "path to the locally recorded TrajectoryTrace JSON (REQUIRED)")
	cmd.StringVar(&projectedPath, "projected", "", "path to the canonical projected TrajectoryTrace JSON (REQUIRED)")
	cmd.StringVar(&query, "query", "", "query DSL filter expression")
	cmd.BoolVar(&strictMode, "strict", false, "strict mode: any mismatch fails the comparison")
	cmd.StringVar(&sessionID, "session-id", "", "actor identity for the policy envelope")
	cmd.BoolVar(&jsonOut, "json", true, "emit the tool envelope response as JSON")
	cmd.StringVar(&otelEndpoint, "otel-endpoint", os.Getenv("REPLAY_OTEL_ENDPOINT"), "OTLP gRPC collector endpoint for comparison metrics (empty disables)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if localPath == "" || projectedPath == "" {
		fmt.Fprintln(stderr, "Error: --local and --projected are required")
		return 2
	}

	local, err := loadTrace(localPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	projected, err := loadTrace(projectedPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	strictness := compare.Lenient
	if strictMode {
		strictness = compare.Strict
	}

	ctx := context.Background()

	metrics, shutdown, err := newOtelMetrics(ctx, otelEndpoint)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() { _ = shutdown(ctx) }()

	req := toolenvelope.Request{
		Command:   toolenvelope.CommandCompare,
		SessionID: sessionID,
		Params: map[string]interface{}{
			"query":       query,
			"strict_mode": strictMode,
		},
	}

	resp, err := env.Execute(ctx, req, func(ctx context.Context) (map[string]interface{}, int, error) {
		start := time.Now()
		res, err := compare.Compare(compare.Input{Local: local, Projected: projected}, compare.Options{
			Strictness: strictness,
			QueryDSL:   query,
			EmitOtel:   otelEndpoint != "",
			Metrics:    metrics,
		}, time.Since(start).Milliseconds())
		if err != nil {
			return nil, 0, err
		}
		logger.Info("compare complete", "status", res.Status, "mismatch_count", res.MismatchCount, "match_rate", res.MatchRate)
		return map[string]interface{}{
			"summary": map[string]interface{}{
				"status":                res.Status,
				"mismatch_count":        res.MismatchCount,
				"match_rate":            res.MatchRate,
				"local_event_count":     res.LocalEventCount,
				"projected_event_count": res.ProjectedEventCount,
				"local_replay":          res.LocalReplayHash,
				"projected_replay":      res.ProjectedReplayHash,
			},
			"anomalies": res.Anomalies,
			"events":    map[string]interface{}{"task_ids": res.TaskIDs, "dispute_ids": res.DisputeIDs},
		}, len(res.Anomalies), nil
	})

	return emitResponse(stdout, stderr, resp, err, jsonOut)
}

func loadTrace(path string) (projection.TrajectoryTrace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return projection.TrajectoryTrace{}, fmt.Errorf("read trace %q: %w", path, err)
	}
	var trace projection.TrajectoryTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return projection.TrajectoryTrace{}, fmt.Errorf("parse trace %q: %w", path, err)
	}
	return trace, nil
}
