package evidence

import (
	"sort"

	"github.com/Mindburn-Labs/replayspine/pkg/canonicalize"
	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/replay"
)

// ValidateIncident runs the replay engine over records, sorts the
// resulting errors and warnings, and computes a stable hash over the
// whole validation object — distinct from replay's own
// deterministic_hash, since evidence validation hashes the sorted
// error/warning strings together rather than the fold state.
func ValidateIncident(records []projection.TimelineEvent, strict bool) (Validation, error) {
	trace := projection.TrajectoryTrace{SchemaVersion: 1, Events: records}
	res, err := replay.Replay(trace, replay.Options{StrictMode: strict})
	if err != nil {
		return Validation{}, err
	}

	errs := append([]string{}, res.Errors...)
	warns := append([]string{}, res.Warnings...)
	sort.Strings(errs)
	sort.Strings(warns)

	v := Validation{Errors: errs, Warnings: warns}
	hash, err := canonicalize.CanonicalHash(struct {
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}{errs, warns})
	if err != nil {
		return Validation{}, err
	}
	v.DeterministicHash = hash
	return v, nil
}
