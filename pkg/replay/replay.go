// Package replay implements the replay engine: a deterministic fold
// of a trajectory trace into per-task and per-dispute state, with a
// stable summary hash used to compare local and projected runs.
package replay

import (
	"fmt"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/taxonomy"
)

// Summary is the deterministic roll-up of a replay fold.
type Summary struct {
	TotalEvents  int            `json:"total_events"`
	ByType       map[string]int `json:"by_type"`
	TaskCount    int            `json:"task_count"`
	DisputeCount int            `json:"dispute_count"`
}

// Result is the output of replaying a trajectory trace.
type Result struct {
	Tasks             map[string]taxonomy.TaskState    `json:"tasks"`
	Disputes          map[string]taxonomy.DisputeState `json:"disputes"`
	Errors            []string                         `json:"errors"`
	Warnings          []string                         `json:"warnings"`
	Summary           Summary                          `json:"summary"`
	DeterministicHash string                            `json:"deterministic_hash"`
}

// Options configures a single replay fold.
type Options struct {
	StrictMode bool
}

type foldState struct {
	strict bool
	errs   []string
	warns  []string
}

func (fs *foldState) conflict(msg string) {
	if fs.strict {
		fs.errs = append(fs.errs, msg)
		return
	}
	fs.warns = append(fs.warns, msg)
}

// Replay folds trace.Events left-to-right into per-task/per-dispute
// state, classifying every invalid transition as an error (strict
// mode) or a warning (lenient mode), and returns a result whose
// DeterministicHash is a pure function of the ordered event sequence
// after canonicalisation (I4 / P4).
func Replay(trace projection.TrajectoryTrace, opts Options) (Result, error) {
	res := Result{
		Tasks:    make(map[string]taxonomy.TaskState),
		Disputes: make(map[string]taxonomy.DisputeState),
		Summary:  Summary{ByType: make(map[string]int)},
	}
	fs := &foldState{strict: opts.StrictMode}

	for _, ev := range trace.Events {
		res.Summary.TotalEvents++
		res.Summary.ByType[string(ev.Type)]++

		switch familyOfType(ev.Type) {
		case taxonomy.FamilyTask:
			foldTask(fs, res.Tasks, ev)
		case taxonomy.FamilyDispute:
			foldDispute(fs, res.Disputes, ev)
		}
	}

	res.Summary.TaskCount = len(res.Tasks)
	res.Summary.DisputeCount = len(res.Disputes)
	res.Errors = fs.errs
	res.Warnings = fs.warns

	hash, err := canonicalize.CanonicalHash(struct {
		Tasks    map[string]taxonomy.TaskState    `json:"tasks"`
		Disputes map[string]taxonomy.DisputeState `json:"disputes"`
		Errors   []string                         `json:"errors"`
		Warnings []string                         `json:"warnings"`
		Summary  Summary                          `json:"summary"`
	}{res.Tasks, res.Disputes, res.Errors, res.Warnings, res.Summary})
	if err != nil {
		return res, fmt.Errorf("replay: hash computation failed: %w", err)
	}
	res.DeterministicHash = hash

	return res, nil
}

func familyOfType(t taxonomy.Type) taxonomy.Family {
	if _, ok := taxonomy.TypeToDisputeState(t); ok {
		return taxonomy.FamilyDispute
	}
	if _, ok := taxonomy.TypeToTaskState(t); ok {
		return taxonomy.FamilyTask
	}
	return taxonomy.FamilyUnknown
}

func foldTask(fs *foldState, tasks map[string]taxonomy.TaskState, ev projection.TimelineEvent) {
	to, ok := taxonomy.TypeToTaskState(ev.Type)
	if !ok {
		return
	}
	key := ev.TaskPda
	from, known := tasks[key]
	if !known {
		from = taxonomy.TaskStateNone
	}
	if !taxonomy.TaskTransitionAllowed(from, to) {
		fs.conflict(fmt.Sprintf("seq=%d task=%q: invalid transition %s -> %s", ev.Seq, key, from, to))
	}
	tasks[key] = to
}

func foldDispute(fs *foldState, disputes map[string]taxonomy.DisputeState, ev projection.TimelineEvent) {
	to, ok := taxonomy.TypeToDisputeState(ev.Type)
	if !ok {
		return
	}
	key := disputeIDFromPayload(ev.Payload)
	from, known := disputes[key]
	if !known {
		from = taxonomy.DisputeStateNone
	}
	if !taxonomy.DisputeTransitionAllowed(from, to) {
		fs.conflict(fmt.Sprintf("seq=%d dispute=%q: invalid transition %s -> %s", ev.Seq, key, from, to))
	}
	disputes[key] = to
}

// disputeIDFromPayload pulls the disputeId out of a TimelineEvent's
// `onchain` sub-object, returning "" when absent rather than panicking
// on the untyped map assertion chain.
func disputeIDFromPayload(payload map[string]interface{}) string {
	onchain, ok := payload["onchain"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := onchain["disputeId"].(string)
	return id
}
