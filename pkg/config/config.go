// Package config loads tool-policy configuration from the REPLAY_*
// environment variables (spec §6.7), with an optional YAML override
// file layered on top.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the resolved tool policy applied by the tool envelope.
type Config struct {
	MaxSlotWindow     uint64
	MaxEventCount     int
	MaxConcurrentJobs int
	ToolTimeoutMs     int64
	MaxPayloadBytes   int64
	Allowlist         []string
	Denylist          []string
	DefaultRedactions []string
	AuditEnabled      bool
	PolicyFile        string
	ActorRatePerSec   float64
	ActorRateBurst    int
}

// Load loads configuration from environment variables, applying the
// defaults below for anything unset.
func Load() *Config {
	cfg := &Config{
		MaxSlotWindow:     getUint64("REPLAY_MAX_SLOT_WINDOW", 1_000_000),
		MaxEventCount:     getInt("REPLAY_MAX_EVENT_COUNT", 50_000),
		MaxConcurrentJobs: getInt("REPLAY_MAX_CONCURRENT_JOBS", 4),
		ToolTimeoutMs:     getInt64("REPLAY_TOOL_TIMEOUT_MS", 30_000),
		MaxPayloadBytes:   getInt64("REPLAY_MAX_PAYLOAD_BYTES", 5*1024*1024),
		Allowlist:         splitList(os.Getenv("REPLAY_ALLOWLIST")),
		Denylist:          splitList(os.Getenv("REPLAY_DENYLIST")),
		DefaultRedactions: splitList(os.Getenv("REPLAY_DEFAULT_REDACTIONS")),
		AuditEnabled:      os.Getenv("REPLAY_AUDIT_ENABLED") == "true",
		PolicyFile:        os.Getenv("REPLAY_POLICY_FILE"),
		ActorRatePerSec:   getFloat("REPLAY_ACTOR_RATE_PER_SEC", 10),
		ActorRateBurst:    getInt("REPLAY_ACTOR_RATE_BURST", 20),
	}

	if cfg.PolicyFile != "" {
		if override, err := LoadPolicyOverride(cfg.PolicyFile); err == nil {
			cfg.applyOverride(override)
		}
	}

	return cfg
}

func (c *Config) applyOverride(o *PolicyOverride) {
	if o.MaxSlotWindow != nil {
		c.MaxSlotWindow = *o.MaxSlotWindow
	}
	if o.MaxEventCount != nil {
		c.MaxEventCount = *o.MaxEventCount
	}
	if o.MaxConcurrentJobs != nil {
		c.MaxConcurrentJobs = *o.MaxConcurrentJobs
	}
	if o.ToolTimeoutMs != nil {
		c.ToolTimeoutMs = *o.ToolTimeoutMs
	}
	if o.MaxPayloadBytes != nil {
		c.MaxPayloadBytes = *o.MaxPayloadBytes
	}
	if len(o.Allowlist) > 0 {
		c.Allowlist = o.Allowlist
	}
	if len(o.Denylist) > 0 {
		c.Denylist = o.Denylist
	}
	if len(o.DefaultRedactions) > 0 {
		c.DefaultRedactions = o.DefaultRedactions
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return n
}

func getUint64(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
