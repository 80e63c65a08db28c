package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Mindburn-Labs/replayspine/pkg/config"
	"github.com/Mindburn-Labs/replayspine/pkg/obslog"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing, mirroring core/cmd/helm's
// testable Run(args, stdout, stderr) int dispatcher.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	cfg := config.Load()
	logger := obslog.New(stderr, os.Getenv("REPLAY_LOG_LEVEL"))
	env := toolenvelope.New(cfg)

	switch args[1] {
	case "backfill":
		return runBackfillCmd(env, logger, args[2:], stdout, stderr)
	case "compare":
		return runCompareCmd(env, logger, args[2:], stdout, stderr)
	case "incident":
		return runIncidentCmd(env, logger, args[2:], stdout, stderr)
	case "status":
		return runStatusCmd(env, logger, args[2:], stdout, stderr)
	case "serve":
		return runServeCmd(env, logger, args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "replayspine — coordination-protocol event replay and evidence tooling")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  replayspine <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "COMMANDS:")
	fmt.Fprintln(w, "  backfill   Page raw events through projection into the timeline store")
	fmt.Fprintln(w, "  compare    Compare a local trace against the canonical projected trace")
	fmt.Fprintln(w, "  incident   Summarise, validate, and narrate a stored task/dispute history")
	fmt.Fprintln(w, "  status     Report store cursor and in-flight job count")
	fmt.Fprintln(w, "  serve      Run the HTTP tool surface (POST /tool)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'replayspine <command> -h' for command-specific flags.")
}
