package compare

import (
	"fmt"
	"sort"

	"github.com/Mindburn-Labs/replayspine/pkg/projection"
	"github.com/Mindburn-Labs/replayspine/pkg/replay"
)

// Compare aligns a locally recorded trace against the canonical
// projected trace and returns a deterministic ComparisonResult, per
// the single-pass algorithm of §4.F. It is deterministic given the
// same inputs and options — no wall-clock leaks into the result other
// than DurationMs, which callers may zero out before hashing if they
// need full purity.
func Compare(in Input, opts Options, elapsedMs int64) (Result, error) {
	var filter Filter
	if opts.QueryDSL != "" {
		f, err := ParseQuery(opts.QueryDSL)
		if err != nil {
			return Result{}, err
		}
		filter = f
	}

	strictness := opts.Strictness
	if strictness == "" {
		strictness = Lenient
	}

	local := filterEvents(in.Local.Events, filter)
	projected := filterEvents(in.Projected.Events, filter)

	res := Result{
		Strictness:          strictness,
		LocalEventCount:     len(local),
		ProjectedEventCount: len(projected),
		DurationMs:          elapsedMs,
	}

	localBySeq, localDupes := indexBySeq(local)
	projectedBySeq, projectedDupes := indexBySeq(projected)

	var anomalies []Anomaly

	for _, seq := range localDupes {
		anomalies = append(anomalies, Anomaly{
			Code: CodeDuplicateSequence, Severity: SeverityError,
			Message: fmt.Sprintf("duplicate seq %d in local trace", seq),
			Context: map[string]interface{}{"seq": seq, "side": "local"},
		})
	}
	for _, seq := range projectedDupes {
		anomalies = append(anomalies, Anomaly{
			Code: CodeDuplicateSequence, Severity: SeverityError,
			Message: fmt.Sprintf("duplicate seq %d in projected trace", seq),
			Context: map[string]interface{}{"seq": seq, "side": "projected"},
		})
	}

	seqs := unionSeqs(localBySeq, projectedBySeq)
	for _, seq := range seqs {
		l, hasLocal := localBySeq[seq]
		p, hasProjected := projectedBySeq[seq]

		switch {
		case hasLocal && !hasProjected:
			anomalies = append(anomalies, Anomaly{
				Code: CodeUnexpectedEvent, Severity: SeverityWarning,
				Message: fmt.Sprintf("seq %d present locally but not in projection", seq),
				Context: map[string]interface{}{"seq": seq},
				Observed: l,
			})
		case !hasLocal && hasProjected:
			anomalies = append(anomalies, Anomaly{
				Code: CodeMissingEvent, Severity: SeverityError,
				Message: fmt.Sprintf("seq %d present in projection but not locally", seq),
				Context: map[string]interface{}{"seq": seq},
				Expected: p,
			})
		default:
			anomalies = append(anomalies, compareEvent(seq, l, p, strictness)...)
		}
	}

	localReplay, err := replay.Replay(in.Local, replay.Options{StrictMode: strictness == Strict})
	if err != nil {
		return Result{}, fmt.Errorf("compare: replay local trace: %w", err)
	}
	projectedReplay, err := replay.Replay(in.Projected, replay.Options{StrictMode: strictness == Strict})
	if err != nil {
		return Result{}, fmt.Errorf("compare: replay projected trace: %w", err)
	}
	res.LocalReplayHash = localReplay.DeterministicHash
	res.ProjectedReplayHash = projectedReplay.DeterministicHash

	if localReplay.DeterministicHash != projectedReplay.DeterministicHash {
		anomalies = append(anomalies, Anomaly{
			Code: CodeHashMismatch, Severity: SeverityError,
			Message:  "local and projected replay hashes differ",
			Context:  map[string]interface{}{"seq": "replay_hash"},
			Expected: projectedReplay.DeterministicHash,
			Observed: localReplay.DeterministicHash,
		})
	}

	for _, ev := range projected {
		h, err := projection.ProjectionHash(ev)
		if err != nil {
			return Result{}, fmt.Errorf("compare: recompute projection_hash: %w", err)
		}
		stored := storedHash(ev)
		if stored != "" && stored != h {
			anomalies = append(anomalies, Anomaly{
				Code: CodeHashMismatch, Severity: SeverityError,
				Message:  fmt.Sprintf("seq %d projection_hash mismatch", ev.Seq),
				Context:  map[string]interface{}{"seq": ev.Seq},
				Expected: h,
				Observed: stored,
			})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		si, sj := anomalies[i].seq(), anomalies[j].seq()
		if si != sj {
			return si < sj
		}
		return anomalies[i].Code < anomalies[j].Code
	})

	if filter.AnomalyCode != "" || filter.Severity != "" {
		anomalies = filterAnomalies(anomalies, filter)
	}

	res.Anomalies = anomalies
	res.MismatchCount = countMismatches(anomalies)
	denom := maxInt(len(local), len(projected), 1)
	res.MatchRate = maxFloat(0, 1-float64(len(anomalies))/float64(denom))

	if res.MismatchCount > 0 {
		res.Status = StatusMismatched
	} else {
		res.Status = StatusClean
	}

	res.TaskIDs = uniqueTaskIDs(local, projected)
	res.DisputeIDs = uniqueDisputeIDs(local, projected)

	emitTelemetry(opts, res)

	if strictness == Strict && res.MismatchCount > 0 {
		return res, &ReplayComparisonError{Result: res}
	}
	return res, nil
}

// storedHash is a placeholder for a projection_hash an upstream caller
// stamped onto the event's payload under "projection_hash"; events
// produced directly by Project carry no such field, in which case
// recomputation has nothing to disagree with.
func storedHash(ev projection.TimelineEvent) string {
	if v, ok := ev.Payload["projection_hash"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func compareEvent(seq uint32, l, p projection.TimelineEvent, strictness Strictness) []Anomaly {
	var out []Anomaly
	ctx := map[string]interface{}{"seq": seq}

	if l.Type != p.Type {
		out = append(out, Anomaly{
			Code: CodeTypeMismatch, Severity: SeverityError,
			Message: fmt.Sprintf("seq %d type mismatch", seq), Context: ctx,
			Expected: p.Type, Observed: l.Type,
		})
	}
	if l.TaskPda != p.TaskPda {
		out = append(out, Anomaly{
			Code: CodeTaskIDMismatch, Severity: SeverityError,
			Message: fmt.Sprintf("seq %d task_pda mismatch", seq), Context: ctx,
			Expected: p.TaskPda, Observed: l.TaskPda,
		})
	}
	if l.Signature != p.Signature {
		out = append(out, Anomaly{
			Code: CodeHashMismatch, Severity: SeverityWarning,
			Message: fmt.Sprintf("seq %d signature mismatch", seq), Context: ctx,
			Expected: p.Signature, Observed: l.Signature,
		})
	}

	lh, lerr := projection.ProjectionHash(l)
	ph, perr := projection.ProjectionHash(p)
	if lerr == nil && perr == nil && lh != ph {
		sev := SeverityWarning
		if strictness == Strict {
			sev = SeverityError
		}
		out = append(out, Anomaly{
			Code: CodeHashMismatch, Severity: sev,
			Message: fmt.Sprintf("seq %d payload digest mismatch", seq), Context: ctx,
			Expected: ph, Observed: lh,
		})
	}
	return out
}

func filterEvents(events []projection.TimelineEvent, f Filter) []projection.TimelineEvent {
	if f == (Filter{}) {
		return events
	}
	out := make([]projection.TimelineEvent, 0, len(events))
	for _, ev := range events {
		disputeID := ""
		if onchain, ok := ev.Payload["onchain"].(map[string]interface{}); ok {
			disputeID, _ = onchain["disputeId"].(string)
		}
		if f.MatchesEvent(ev.TaskPda, disputeID, string(ev.Type), ev.Slot) {
			out = append(out, ev)
		}
	}
	return out
}

func filterAnomalies(anomalies []Anomaly, f Filter) []Anomaly {
	out := make([]Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if f.MatchesAnomaly(string(a.Code), string(a.Severity)) {
			out = append(out, a)
		}
	}
	return out
}

func indexBySeq(events []projection.TimelineEvent) (map[uint32]projection.TimelineEvent, []uint32) {
	m := make(map[uint32]projection.TimelineEvent, len(events))
	seen := make(map[uint32]bool, len(events))
	var dupes []uint32
	for _, ev := range events {
		if seen[ev.Seq] {
			dupes = append(dupes, ev.Seq)
			continue
		}
		seen[ev.Seq] = true
		m[ev.Seq] = ev
	}
	return m, dupes
}

func unionSeqs(a, b map[uint32]projection.TimelineEvent) []uint32 {
	set := make(map[uint32]bool, len(a)+len(b))
	for s := range a {
		set[s] = true
	}
	for s := range b {
		set[s] = true
	}
	out := make([]uint32, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func countMismatches(anomalies []Anomaly) int {
	n := 0
	for _, a := range anomalies {
		if a.Severity == SeverityError {
			n++
		}
	}
	return n
}

func uniqueTaskIDs(sets ...[]projection.TimelineEvent) []string {
	seen := map[string]bool{}
	var out []string
	for _, set := range sets {
		for _, ev := range set {
			if ev.TaskPda != "" && !seen[ev.TaskPda] {
				seen[ev.TaskPda] = true
				out = append(out, ev.TaskPda)
			}
		}
	}
	sort.Strings(out)
	return out
}

func uniqueDisputeIDs(sets ...[]projection.TimelineEvent) []string {
	seen := map[string]bool{}
	var out []string
	for _, set := range sets {
		for _, ev := range set {
			onchain, ok := ev.Payload["onchain"].(map[string]interface{})
			if !ok {
				continue
			}
			id, _ := onchain["disputeId"].(string)
			if id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func emitTelemetry(opts Options, res Result) {
	if opts.Metrics != nil {
		labels := map[string]string{"strictness": string(res.Strictness)}
		opts.Metrics.Counter("replay.compare.total", 1, labels)
		if res.Status == StatusClean {
			opts.Metrics.Counter("replay.compare.clean", 1, labels)
		} else {
			opts.Metrics.Counter("replay.compare.mismatched", 1, labels)
		}
		opts.Metrics.Histogram("replay.compare.duration_ms", float64(res.DurationMs), labels)
		for _, a := range res.Anomalies {
			codeLabels := map[string]string{"strictness": string(res.Strictness), "code": string(a.Code)}
			opts.Metrics.Counter("replay.compare.anomaly", 1, codeLabels)
		}
	}

	if opts.AlertDispatcher != nil {
		for _, a := range res.Anomalies {
			opts.AlertDispatcher.Emit(ReplayAlertContext{
				Code:     a.Code,
				Severity: a.Severity,
				Kind:     "replay.compare." + string(a.Code),
				Message:  a.Message,
				TraceID:  opts.TraceID,
				Metadata: map[string]interface{}{"expected": a.Expected, "observed": a.Observed},
			})
		}
	}
}
