// Package toolenvelope implements the tool policy envelope (§4.H):
// the single entry point every backfill/compare/incident/status
// request passes through before its body runs, enforcing schema
// validation, policy resolution, identity, the concurrency gate,
// audit records, slot-window pre-flight checks, a timeout/cancellation
// race around the body, the post-flight event cap, section
// selection, redaction, and output truncation.
package toolenvelope

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mindburn-Labs/replayspine/pkg/config"
	"github.com/Mindburn-Labs/replayspine/pkg/evidence"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope/concurrency"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope/identity"
	"github.com/Mindburn-Labs/replayspine/pkg/toolenvelope/policy"
	"github.com/Mindburn-Labs/replayspine/pkg/toolerrors"
)

// Envelope wires the policy, identity, concurrency, and audit
// machinery around tool invocations.
type Envelope struct {
	cfg               *config.Config
	gate              concurrency.Limiter
	access            policy.AccessList
	celPolicy         *policy.CELPolicy
	identityValidator identity.Validator
	pacer             *actorPacer
	audit             *AuditLogger
	clock             func() time.Time
}

// Option configures an Envelope at construction.
type Option func(*Envelope)

// WithConcurrencyGate overrides the default in-process Gate, e.g. with
// a concurrency.DistributedGate for multi-instance deployments.
func WithConcurrencyGate(g concurrency.Limiter) Option {
	return func(e *Envelope) { e.gate = g }
}

// WithIdentityValidator supplies a JWT validator for bearer-token
// actor resolution.
func WithIdentityValidator(v identity.Validator) Option {
	return func(e *Envelope) { e.identityValidator = v }
}

// WithCELPolicy adds the optional CEL allow-expression gate
// (SPEC_FULL §12.4), additive to the static allow/denylist.
func WithCELPolicy(p *policy.CELPolicy) Option {
	return func(e *Envelope) { e.celPolicy = p }
}

// WithClock overrides the clock for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Envelope) { e.clock = clock }
}

// New builds an Envelope from the resolved policy configuration.
func New(cfg *config.Config, opts ...Option) *Envelope {
	e := &Envelope{
		cfg:    cfg,
		gate:   concurrency.NewGate(cfg.MaxConcurrentJobs),
		access: policy.NewAccessList(cfg.Allowlist, cfg.Denylist),
		pacer:  newActorPacer(cfg.ActorRatePerSec, cfg.ActorRateBurst),
		audit:  NewAuditLogger(cfg.AuditEnabled),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs req.Command's body under the full tool policy envelope
// (§4.H steps 1-11), returning either a success Response or a
// *toolerrors.Error.
func (e *Envelope) Execute(ctx context.Context, req Request, body Body) (*Response, error) {
	// 1. Parse & validate inputs.
	if err := ValidateParams(req.Command, req.Params); err != nil {
		return nil, toolerrors.New(string(req.Command), toolerrors.CodeInvalidInput, err.Error(), nil)
	}

	// 3. Identity and access check.
	actor := identity.ResolveActor(req.BearerToken, req.SessionID, e.identityValidator)
	if !e.access.IsAllowed(actor) {
		return nil, toolerrors.New(string(req.Command), toolerrors.CodeAccessDenied,
			fmt.Sprintf("actor %q denied by allow/denylist", actor), nil)
	}
	if e.celPolicy != nil {
		allowed, err := e.celPolicy.Allow(policy.Input{Actor: actor, Command: string(req.Command)})
		if err != nil || !allowed {
			return nil, toolerrors.New(string(req.Command), toolerrors.CodeAccessDenied,
				fmt.Sprintf("actor %q denied by policy expression", actor), nil)
		}
	}

	// 3.5. Per-actor request pacing, ahead of the hard concurrency gate.
	if e.pacer != nil && !e.pacer.allow(actor) {
		return nil, toolerrors.New(string(req.Command), toolerrors.CodeConcurrencyLimit,
			fmt.Sprintf("actor %q exceeded request pacing limit", actor), nil)
	}

	// 4. Global concurrency gate.
	admitted, err := e.gate.Acquire(ctx)
	if err != nil {
		return nil, toolerrors.New(string(req.Command), toolerrors.CodeToolError, err.Error(), nil)
	}
	if !admitted {
		return nil, toolerrors.New(string(req.Command), toolerrors.CodeConcurrencyLimit,
			"max_concurrent_jobs reached", nil)
	}
	defer e.gate.Release(ctx)

	// 5. Audit start.
	requestID := e.audit.Start(actor, string(req.Command))
	start := e.clock()

	// 6. Pre-flight slot-window check.
	if req.SlotWindow.HasRange {
		if tErr := e.checkSlotWindow(req); tErr != nil {
			e.audit.Finalize(requestID, actor, string(req.Command), AuditFailure, e.clock().Sub(start), string(tErr.Code))
			return nil, tErr
		}
	}

	// 7. Execute the body under a timeout/cancellation race.
	output, eventCount, runErr := e.runBody(ctx, req.Command, body)
	duration := e.clock().Sub(start)
	if runErr != nil {
		tErr := classifyBodyError(req.Command, runErr)
		e.audit.Finalize(requestID, actor, string(req.Command), AuditFailure, duration, string(tErr.Code))
		return nil, tErr
	}

	// 8. Post-flight event cap.
	if eventCount > e.cfg.MaxEventCount {
		tErr := toolerrors.New(string(req.Command), toolerrors.CodeEventCapExceeded,
			fmt.Sprintf("result_event_count %d exceeds max_event_count %d", eventCount, e.cfg.MaxEventCount), nil)
		e.audit.Finalize(requestID, actor, string(req.Command), AuditFailure, duration, string(tErr.Code))
		return nil, tErr
	}

	// 9. Section selection.
	sections := mergeSections(req.Command, req.Sections, output)

	// 10. Redaction. Bodies may return concrete structs (a
	// timeline.Cursor, a []compare.Anomaly) rather than generic JSON
	// trees; round-tripping through encoding/json first normalises
	// everything to map[string]interface{}/[]interface{} so
	// ApplyRedaction's key-name walk reaches every leaf regardless of
	// what the body actually returned.
	redactions := mergeRedactions(e.cfg.DefaultRedactions, req.Redactions)
	generic, genErr := toGenericTree(sections)
	if genErr != nil {
		tErr := toolerrors.New(string(req.Command), toolerrors.CodeOutputValidation, genErr.Error(), nil)
		e.audit.Finalize(requestID, actor, string(req.Command), AuditFailure, duration, string(tErr.Code))
		return nil, tErr
	}
	redacted := evidence.ApplyRedaction(generic, evidence.RedactionPolicy{MaskFields: redactions})

	resp := &Response{
		Status:        "ok",
		Command:       req.Command,
		Schema:        outputSchemaOf[req.Command],
		Sections:      redacted.(map[string]interface{}),
		Redactions:    redactions,
		CommandParams: req.Params,
	}

	// 11. Output truncation.
	truncate(resp, e.cfg.MaxPayloadBytes)

	e.audit.Finalize(requestID, actor, string(req.Command), AuditSuccess, duration, "")
	return resp, nil
}

// inFlightReporter is implemented by concurrency.Gate, surfacing the
// current job count for the status command's "jobs" section.
type inFlightReporter interface{ InFlight() int }

// InFlight reports the number of currently admitted jobs, when the
// configured Limiter exposes one (ok is false for Limiters that
// don't, e.g. a bare DistributedGate wrapper).
func (e *Envelope) InFlight() (count int, ok bool) {
	r, ok := e.gate.(inFlightReporter)
	if !ok {
		return 0, false
	}
	return r.InFlight(), true
}

func (e *Envelope) checkSlotWindow(req Request) *toolerrors.Error {
	w := req.SlotWindow
	if w.ToSlot < w.FromSlot {
		return toolerrors.New(string(req.Command), toolerrors.CodeInvalidInput,
			"to_slot must be >= from_slot", nil)
	}
	if w.ToSlot-w.FromSlot > e.cfg.MaxSlotWindow {
		return toolerrors.New(string(req.Command), toolerrors.CodeSlotWindow,
			fmt.Sprintf("slot window %d exceeds max_slot_window %d", w.ToSlot-w.FromSlot, e.cfg.MaxSlotWindow), nil)
	}
	if req.Command == CommandBackfill && req.CurrentSlot != nil {
		if *req.CurrentSlot > w.ToSlot && *req.CurrentSlot-w.ToSlot > e.cfg.MaxSlotWindow {
			return toolerrors.New(string(req.Command), toolerrors.CodeSlotWindow,
				"current_slot - to_slot exceeds max_slot_window", nil)
		}
	}
	return nil
}

// runBody races the body against the configured timeout and the
// caller's cancellation, mirroring the ctx.Done()/select idiom used
// throughout the teacher's sandbox and governance packages.
func (e *Envelope) runBody(ctx context.Context, command Command, body Body) (map[string]interface{}, int, error) {
	timeout := time.Duration(e.cfg.ToolTimeoutMs) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		output map[string]interface{}
		count  int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		output, count, err := body(runCtx)
		done <- result{output, count, err}
	}()

	select {
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return nil, 0, errCancelled{command}
		}
		return nil, 0, errTimeout{command}
	case r := <-done:
		return r.output, r.count, r.err
	}
}

type errCancelled struct{ command Command }

func (e errCancelled) Error() string { return fmt.Sprintf("%s: cancelled", e.command) }

type errTimeout struct{ command Command }

func (e errTimeout) Error() string { return fmt.Sprintf("%s: timed out", e.command) }

func classifyBodyError(command Command, err error) *toolerrors.Error {
	switch err.(type) {
	case errCancelled:
		return toolerrors.New(string(command), toolerrors.CodeCancelled, err.Error(), nil)
	case errTimeout:
		return toolerrors.New(string(command), toolerrors.CodeTimeout, err.Error(), nil)
	}

	switch command {
	case CommandBackfill:
		return toolerrors.New(string(command), toolerrors.CodeBackfillFailed, err.Error(), nil)
	case CommandCompare:
		return toolerrors.New(string(command), toolerrors.CodeCompareFailed, err.Error(), nil)
	case CommandIncident:
		return toolerrors.New(string(command), toolerrors.CodeIncidentFailed, err.Error(), nil)
	case CommandStatus:
		return toolerrors.New(string(command), toolerrors.CodeStatusFailed, err.Error(), nil)
	default:
		return toolerrors.New(string(command), toolerrors.CodeToolError, err.Error(), nil)
	}
}

func mergeSections(command Command, requested []string, output map[string]interface{}) map[string]interface{} {
	allowed := toSet(allowedSectionsOf[command])
	wanted := toSet(requested)
	out := make(map[string]interface{}, len(allowed))
	for _, section := range allowedSectionsOf[command] {
		if len(wanted) > 0 && !wanted[section] {
			out[section] = nil
			continue
		}
		if !allowed[section] {
			continue
		}
		out[section] = output[section]
	}
	return out
}

func mergeRedactions(defaults, caller []string) []string {
	seen := make(map[string]bool, len(defaults)+len(caller))
	var out []string
	for _, list := range [][]string{defaults, caller} {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func toSet(xs []string) map[string]bool {
	s := make(map[string]bool, len(xs))
	for _, x := range xs {
		s[x] = true
	}
	return s
}

// toGenericTree normalises an arbitrary sections map (which may
// contain concrete structs from a Body's domain-package results) into
// the map[string]interface{}/[]interface{}/scalar shape ApplyRedaction
// walks.
func toGenericTree(sections map[string]interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	return generic, nil
}
