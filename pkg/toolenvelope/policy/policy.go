// Package policy implements the access-control checks of §4.H rule 3
// (static allowlist/denylist) and the supplemented CEL allow-expression
// (SPEC_FULL §12.4), both gates additive: a request must pass both.
package policy

import "fmt"

// AccessList is the static allow/denylist check.
type AccessList struct {
	Allowlist map[string]bool
	Denylist  map[string]bool
}

// NewAccessList builds an AccessList from the env/override-derived
// string slices.
func NewAccessList(allowlist, denylist []string) AccessList {
	return AccessList{Allowlist: toSet(allowlist), Denylist: toSet(denylist)}
}

// IsAllowed reports whether actor may proceed: denylist membership
// always wins; a non-empty allowlist requires membership.
func (a AccessList) IsAllowed(actor string) bool {
	if a.Denylist[actor] {
		return false
	}
	if len(a.Allowlist) > 0 && !a.Allowlist[actor] {
		return false
	}
	return true
}

func toSet(xs []string) map[string]bool {
	s := make(map[string]bool, len(xs))
	for _, x := range xs {
		s[x] = true
	}
	return s
}

// Input is the CEL evaluation context: actor, command, and optional
// task/dispute identifiers referenced by an operator-supplied
// expression (SPEC_FULL §12.4).
type Input struct {
	Actor    string
	Command  string
	TaskPda  string
	Metadata map[string]interface{}
}

func (i Input) toCEL() map[string]interface{} {
	return map[string]interface{}{
		"actor":    i.Actor,
		"command":  i.Command,
		"task_pda": i.TaskPda,
		"metadata": i.Metadata,
	}
}

var errNotBool = fmt.Errorf("policy: CEL expression did not evaluate to a boolean")
