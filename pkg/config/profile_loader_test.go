package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPolicyOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_slot_window: 500000
max_concurrent_jobs: 8
allowlist:
  - ops-console
  - incident-bot
`), 0o644))

	override, err := LoadPolicyOverride(path)
	require.NoError(t, err)
	require.NotNil(t, override.MaxSlotWindow)
	require.Equal(t, uint64(500000), *override.MaxSlotWindow)
	require.NotNil(t, override.MaxConcurrentJobs)
	require.Equal(t, 8, *override.MaxConcurrentJobs)
	require.Equal(t, []string{"ops-console", "incident-bot"}, override.Allowlist)
}

func TestLoadPolicyOverrideMissingFile(t *testing.T) {
	_, err := LoadPolicyOverride(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
