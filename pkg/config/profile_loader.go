package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyOverride is an optional YAML file (REPLAY_POLICY_FILE) layered
// on top of the REPLAY_* environment variables: fields it sets take
// precedence over the environment. Unset fields leave the
// environment-derived value in place.
type PolicyOverride struct {
	MaxSlotWindow     *uint64  `yaml:"max_slot_window,omitempty"`
	MaxEventCount     *int     `yaml:"max_event_count,omitempty"`
	MaxConcurrentJobs *int     `yaml:"max_concurrent_jobs,omitempty"`
	ToolTimeoutMs     *int64   `yaml:"max_tool_runtime_ms,omitempty"`
	MaxPayloadBytes   *int64   `yaml:"max_payload_bytes,omitempty"`
	Allowlist         []string `yaml:"allowlist,omitempty"`
	Denylist          []string `yaml:"denylist,omitempty"`
	DefaultRedactions []string `yaml:"default_redactions,omitempty"`
}

// LoadPolicyOverride reads and parses a policy override YAML file.
func LoadPolicyOverride(path string) (*PolicyOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read policy file %q: %w", path, err)
	}

	var override PolicyOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("config: parse policy file %q: %w", path, err)
	}
	return &override, nil
}
