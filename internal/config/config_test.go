package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "prometheus.db", cfg.Store.Path)
	assert.Equal(t, 1536, cfg.Store.EmbeddingDim)
	assert.Contains(t, cfg.Store.ExcludeDirs, ".git")
	assert.Contains(t, cfg.Store.ExcludeDirs, "node_modules")

	assert.Equal(t, 1, cfg.Queue.LaneDefaults["main"])
	assert.Equal(t, int64(2000), cfg.Queue.WarnAfterMs)

	assert.Equal(t, 4, cfg.Runtime.MaxChainLength)
	assert.Equal(t, 2*time.Second, cfg.Runtime.CredentialCooldownBase)
	assert.Equal(t, 5*time.Minute, cfg.Runtime.CredentialCooldownMax)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "custom.db")

	t.Setenv("PROMETHEUS_DB_PATH", dbPath)
	t.Setenv("PROMETHEUS_EMBEDDING_DIM", "768")
	t.Setenv("PROMETHEUS_MAX_CHAIN_LENGTH", "7")
	t.Setenv("PROMETHEUS_ALLOWED_PROVIDERS", "anthropic,openai")
	t.Setenv("PROMETHEUS_LOG_JSON", "false")

	cfg := Default()
	LoadFromEnv(cfg, "")

	assert.Equal(t, dbPath, cfg.Store.Path)
	assert.Equal(t, 768, cfg.Store.EmbeddingDim)
	assert.Equal(t, 7, cfg.Runtime.MaxChainLength)
	assert.Equal(t, []string{"anthropic", "openai"}, cfg.Runtime.AllowedProviders)
	assert.False(t, cfg.Logging.JSON)
}

func TestLoadFromEnvLoadsDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PROMETHEUS_LOG_LEVEL=debug\n"), 0o600))

	cfg := Default()
	LoadFromEnv(cfg, envFile)

	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.EmbeddingDim = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Runtime.MaxChainLength = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Runtime.CredentialCooldownMax = time.Millisecond
	cfg.Runtime.CredentialCooldownBase = time.Second
	assert.Error(t, cfg.Validate())
}

func TestConversationsDir(t *testing.T) {
	cfg := Default()
	cfg.Store.Path = "/data/prometheus.db"
	assert.Equal(t, "/data/conversations", cfg.ConversationsDir())
}
