package toolenvelope

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// inputSchemas holds one JSON Schema source per command (compiled once
// into compiledSchemas below), mirroring
// core/pkg/firewall.PolicyFirewall's per-tool schema map and
// compile-at-registration pattern.
var inputSchemas = map[Command]string{
	CommandBackfill: `{
		"type": "object",
		"properties": {
			"to_slot": {"type": "integer"},
			"page_size": {"type": "integer"}
		},
		"additionalProperties": true
	}`,
	CommandCompare: `{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"strict_mode": {"type": "boolean"}
		},
		"additionalProperties": true
	}`,
	CommandIncident: `{
		"type": "object",
		"properties": {
			"task_pda": {"type": "string"},
			"dispute_pda": {"type": "string"}
		},
		"additionalProperties": true
	}`,
	CommandStatus: `{
		"type": "object",
		"additionalProperties": true
	}`,
}

// compiledSchemas compiles inputSchemas once, at package init, the
// same way firewall.PolicyFirewall.AllowTool compiles a schema at
// registration rather than per call.
var compiledSchemas = mustCompileSchemas()

func mustCompileSchemas() map[Command]*jsonschema.Schema {
	out := make(map[Command]*jsonschema.Schema, len(inputSchemas))
	for cmd, raw := range inputSchemas {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("https://replayspine.local/schema/%s.json", cmd)
		if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
			panic(fmt.Sprintf("toolenvelope: invalid builtin schema for %s: %v", cmd, err))
		}
		compiled, err := c.Compile(url)
		if err != nil {
			panic(fmt.Sprintf("toolenvelope: schema compile failed for %s: %v", cmd, err))
		}
		out[cmd] = compiled
	}
	return out
}

// ValidateParams validates params against command's input schema
// (§4.H step 1).
func ValidateParams(command Command, params map[string]interface{}) error {
	schema, ok := compiledSchemas[command]
	if !ok {
		return nil
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	if err := schema.Validate(params); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
