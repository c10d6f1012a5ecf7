package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()

	require.False(t, cfg.Auth.Enabled)
	require.Equal(t, "./data", cfg.Database.DataDir)

	require.Equal(t, "./export", cfg.Export.OutputDir)
	require.Equal(t, 500, cfg.Export.BatchSize)
	require.Equal(t, 5, cfg.Export.MaxRetries)
	require.Equal(t, 200*time.Millisecond, cfg.Export.RetryDelay)
	require.Equal(t, 10, cfg.Export.MaxNestedDepth)
	require.Equal(t, 1000, cfg.Export.PathFullLimit)
	require.False(t, cfg.Export.EnableHashedIDs)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("NORNICDB_EXPORT_BATCH_SIZE", "250")
	t.Setenv("NORNICDB_EXPORT_ENABLE_HASHED_IDS", "true")
	t.Setenv("NORNICDB_EXPORT_RETRY_DELAY_MS", "500")
	t.Setenv("NORNICDB_EXPORT_OUTPUT_DIR", "/tmp/out")

	cfg := LoadFromEnv()
	require.Equal(t, 250, cfg.Export.BatchSize)
	require.True(t, cfg.Export.EnableHashedIDs)
	require.Equal(t, 500*time.Millisecond, cfg.Export.RetryDelay)
	require.Equal(t, "/tmp/out", cfg.Export.OutputDir)
}

func TestLoadFromEnvAuthParsing(t *testing.T) {
	t.Setenv("NEO4J_AUTH", "neo4j/secretpass")
	cfg := LoadFromEnv()
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "neo4j", cfg.Auth.InitialUsername)
	require.Equal(t, "secretpass", cfg.Auth.InitialPassword)
}

func TestValidateRejectsBadExportValues(t *testing.T) {
	cfg := LoadFromEnv()
	require.NoError(t, cfg.Validate())

	cfg.Export.BatchSize = 0
	require.Error(t, cfg.Validate())

	cfg = LoadFromEnv()
	cfg.Export.NestedShallowDepth = 8
	cfg.Export.NestedReferenceDepth = 4
	require.Error(t, cfg.Validate())

	cfg = LoadFromEnv()
	cfg.Export.PathFullLimit = 500
	cfg.Export.PathCompactLimit = 100
	require.Error(t, cfg.Validate())

	cfg = LoadFromEnv()
	cfg.Export.OutputDir = ""
	require.Error(t, cfg.Validate())
}

func TestStringOmitsPassword(t *testing.T) {
	t.Setenv("NEO4J_AUTH", "neo4j/secretpass")
	cfg := LoadFromEnv()
	require.NotContains(t, cfg.String(), "secretpass")
}
