package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "LLM_MODEL",
		"FAL_KEY", "FAL_BASE_URL", "FAL_QUEUE_BASE_URL", "REDIS_HOST", "SUPABASE_URL", "DOWNLOAD_TIMEOUT_SECONDS", "MAX_UPLOAD_MB",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, LLMProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/openai/", cfg.OpenAIBaseURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.Equal(t, "https://fal.run", cfg.FalBaseURL)
	assert.Equal(t, "https://queue.fal.run", cfg.FalQueueBaseURL)
	assert.Equal(t, 10*time.Second, cfg.DownloadTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.False(t, cfg.LLMConfigured())
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.StorageConfigured())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "genai")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("REDIS_HOST", "cache.local")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_USE_TLS", "true")
	t.Setenv("LLM_TIMEOUT_SECONDS", "45")
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "g-key", cfg.LLMAPIKey())
	assert.True(t, cfg.LLMConfigured())
	assert.True(t, cfg.CacheEnabled())
	assert.True(t, cfg.RedisUseTLS)
	assert.Equal(t, "cache.local:6380", cfg.GetRedisAddr())
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 10, cfg.MaxUploadMB)
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()
	cfg.LLMProvider = "anthropic"
	assert.ErrorContains(t, cfg.Validate(), "LLM_PROVIDER")

	cfg = FromEnv()
	cfg.GenerationTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "GENERATION_TIMEOUT_SECONDS")

	cfg = FromEnv()
	cfg.MaxUploadMB = -1
	assert.ErrorContains(t, cfg.Validate(), "MAX_UPLOAD_MB")
}
