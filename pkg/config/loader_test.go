package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMasterKey(t *testing.T) {
	t.Helper()
	require.NoError(t, os.Setenv("MASTER_ENCRYPTION_KEY", "01234567890123456789012345678901"))
	t.Cleanup(func() { os.Unsetenv("MASTER_ENCRYPTION_KEY") })
}

func TestInitializeUsesDefaultsWhenFileAbsent(t *testing.T) {
	withMasterKey(t)
	cfg, err := Initialize(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.Memory.CacheSize)
	assert.Equal(t, "auto", cfg.Reasoning.Strategy)
}

func TestInitializeMergesYAMLOverDefaults(t *testing.T) {
	withMasterKey(t)
	dir := t.TempDir()
	yamlContent := "memory:\n  cache_size: 42\nllm:\n  api_url: \"llm.internal:50051\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aegis.yaml"), []byte(yamlContent), 0o600))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Memory.CacheSize)
	assert.Equal(t, "llm.internal:50051", cfg.LLM.APIURL)
	assert.Equal(t, 8, cfg.Reasoning.MaxSteps) // untouched default survives merge
}

func TestInitializeExpandsEnvironmentVariables(t *testing.T) {
	withMasterKey(t)
	require.NoError(t, os.Setenv("AEGIS_TEST_LLM_URL", "env-llm:50051"))
	t.Cleanup(func() { os.Unsetenv("AEGIS_TEST_LLM_URL") })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aegis.yaml"), []byte("llm:\n  api_url: \"${AEGIS_TEST_LLM_URL}\"\n"), 0o600))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "env-llm:50051", cfg.LLM.APIURL)
}

func TestInitializeFailsWithoutMasterKey(t *testing.T) {
	os.Unsetenv("MASTER_ENCRYPTION_KEY")
	_, err := Initialize(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestInitializeFailsOnInvalidStrategy(t *testing.T) {
	withMasterKey(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aegis.yaml"), []byte("reasoning:\n  strategy: \"bogus\"\n"), 0o600))

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
}
