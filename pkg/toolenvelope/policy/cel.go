package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELPolicy is an optional boolean allow-expression over
// {actor, command, task_pda, metadata}, mirroring
// core/pkg/kernel/celdp.CELDPEvaluator's env/compile/program/eval
// pipeline but narrowed to a single boolean-result expression
// evaluated once per request rather than a general CEL-DP rule set.
type CELPolicy struct {
	program cel.Program
}

// NewCELPolicy compiles expr against the {actor, command, task_pda,
// metadata} input schema.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("actor", cel.StringType),
		cel.Variable("command", cel.StringType),
		cel.Variable("task_pda", cel.StringType),
		cel.Variable("metadata", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("policy: build cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("policy: compile cel expression: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("policy: build cel program: %w", err)
	}

	return &CELPolicy{program: prg}, nil
}

// Allow evaluates the compiled expression against in.
func (p *CELPolicy) Allow(in Input) (bool, error) {
	val, _, err := p.program.Eval(in.toCEL())
	if err != nil {
		return false, fmt.Errorf("policy: evaluate cel expression: %w", err)
	}
	b, ok := val.Value().(bool)
	if !ok {
		return false, errNotBool
	}
	return b, nil
}
