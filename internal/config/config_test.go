package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HARUSPEX_BACKEND", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ADS_DEV_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "keyword", cfg.Oracle.Provider)
	assert.Equal(t, 2, cfg.Traversal.DepthLimit)
	assert.Equal(t, 100, cfg.Traversal.Budget)
	assert.Equal(t, 2.0, cfg.Hypothesis.RulingWeight)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("HARUSPEX_BACKEND", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ADS_DEV_KEY", "")
	t.Setenv("PORT", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[store]
backend = "memgraph"

[store.memgraph]
uri = "bolt://graph:7687"

[oracle]
provider = "openai"
model = "gpt-4o"

[traversal]
budget = 7
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memgraph", cfg.Store.Backend)
	assert.Equal(t, "bolt://graph:7687", cfg.Store.Memgraph.URI)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, "gpt-4o", cfg.Oracle.Model)
	assert.Equal(t, 7, cfg.Traversal.Budget)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.Traversal.Fanout)
	assert.Equal(t, 0.7, cfg.Classify.RefuteThreshold)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[oracle]
provider = "keyword"
`), 0o644))

	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("ADS_DEV_KEY", "ads-test")
	t.Setenv("PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.Oracle.Provider)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, "ads-test", cfg.Source.Token)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("store = [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse TOML")
}
