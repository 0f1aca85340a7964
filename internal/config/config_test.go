package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	require.NoError(t, Load())
	assert.Equal(t, "test-key", AppConfig.GeminiAPIKey)
	assert.Equal(t, "text-embedding-004", AppConfig.EmbeddingModel)
	assert.Equal(t, "sqlite", AppConfig.StoreBackend)
	assert.Equal(t, "8080", AppConfig.HTTPPort)
	assert.Equal(t, 15, AppConfig.TopK)
	assert.Equal(t, 4, AppConfig.RetrievalWorkers)
	assert.Equal(t, 30, AppConfig.GenerationTimeout)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("RETRIEVAL_TOP_K", "25")
	t.Setenv("LOG_FORMAT", "json")

	require.NoError(t, Load())
	assert.Equal(t, "redis", AppConfig.StoreBackend)
	assert.Equal(t, 25, AppConfig.TopK)
	assert.Equal(t, "json", AppConfig.LogFormat)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORE_BACKEND", "postgres")

	err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoadIgnoresUnparsableInts(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")

	require.NoError(t, Load())
	assert.Equal(t, 15, AppConfig.TopK)
}
