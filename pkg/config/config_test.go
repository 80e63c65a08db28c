package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/replayspine/pkg/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REPLAY_MAX_SLOT_WINDOW", "REPLAY_MAX_EVENT_COUNT", "REPLAY_MAX_CONCURRENT_JOBS",
		"REPLAY_TOOL_TIMEOUT_MS", "REPLAY_MAX_PAYLOAD_BYTES", "REPLAY_ALLOWLIST",
		"REPLAY_DENYLIST", "REPLAY_DEFAULT_REDACTIONS", "REPLAY_AUDIT_ENABLED", "REPLAY_POLICY_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()

	require.Equal(t, uint64(1_000_000), cfg.MaxSlotWindow)
	require.Equal(t, 50_000, cfg.MaxEventCount)
	require.Equal(t, 4, cfg.MaxConcurrentJobs)
	require.Equal(t, int64(30_000), cfg.ToolTimeoutMs)
	require.False(t, cfg.AuditEnabled)
	require.Empty(t, cfg.Allowlist)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPLAY_MAX_SLOT_WINDOW", "2000")
	t.Setenv("REPLAY_MAX_CONCURRENT_JOBS", "16")
	t.Setenv("REPLAY_ALLOWLIST", "alice, bob ,")
	t.Setenv("REPLAY_AUDIT_ENABLED", "true")

	cfg := config.Load()

	require.Equal(t, uint64(2000), cfg.MaxSlotWindow)
	require.Equal(t, 16, cfg.MaxConcurrentJobs)
	require.Equal(t, []string{"alice", "bob"}, cfg.Allowlist)
	require.True(t, cfg.AuditEnabled)
}

func TestLoadAppliesPolicyFileOverEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrent_jobs: 2\n"), 0o644))

	t.Setenv("REPLAY_MAX_CONCURRENT_JOBS", "16")
	t.Setenv("REPLAY_POLICY_FILE", path)

	cfg := config.Load()
	require.Equal(t, 2, cfg.MaxConcurrentJobs)
}
