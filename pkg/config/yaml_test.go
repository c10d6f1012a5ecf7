package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadYAMLOverridesAppliesOnlySetFields(t *testing.T) {
	cfg := LoadFromEnv()
	originalMaxRetries := cfg.Export.MaxRetries

	dir := t.TempDir()
	path := filepath.Join(dir, "export.yaml")
	contents := `
export:
  batch_size: 250
  enable_hashed_ids: true
  retry_delay_ms: 500
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	require.NoError(t, LoadYAMLOverrides(path, cfg))
	require.Equal(t, 250, cfg.Export.BatchSize)
	require.True(t, cfg.Export.EnableHashedIDs)
	require.Equal(t, 500*time.Millisecond, cfg.Export.RetryDelay)
	require.Equal(t, originalMaxRetries, cfg.Export.MaxRetries, "fields absent from the file must keep their env/default value")
}

func TestLoadYAMLOverridesMissingFileErrors(t *testing.T) {
	cfg := LoadFromEnv()
	err := LoadYAMLOverrides(filepath.Join(t.TempDir(), "missing.yaml"), cfg)
	require.Error(t, err)
}

func TestLoadYAMLOverridesRejectsInvalidYAML(t *testing.T) {
	cfg := LoadFromEnv()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export: [this, is, not, a, map]"), 0o644))

	err := LoadYAMLOverrides(path, cfg)
	require.Error(t, err)
}
