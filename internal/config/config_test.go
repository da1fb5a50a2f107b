package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_OpenAIDefaults(t *testing.T) {
	t.Setenv("AI_API_KEY", "sk-test")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, AIClientOpenAI, cfg.AIClientType)
	assert.Equal(t, "gpt-4o-mini", cfg.AIModel)
	assert.Equal(t, "sk-test", cfg.AIAPIKey)
	assert.Equal(t, 120*time.Second, cfg.AITimeout)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Nil(t, cfg.AITemperature)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.GetAllowedOrigins())
}

func TestLoadConfig_OllamaNeedsNoKey(t *testing.T) {
	t.Setenv("AI_CLIENT_TYPE", "Ollama")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("AI_TEMPERATURE", "0.2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, AIClientOllama, cfg.AIClientType)
	assert.Equal(t, "http://localhost:11434", cfg.AIBaseURL)
	assert.Equal(t, "llama3.2", cfg.AIModel)
	require.NotNil(t, cfg.AITemperature)
	assert.InDelta(t, 0.2, *cfg.AITemperature, 1e-9)
}

func TestLoadConfig_AnthropicMaxTokensDefault(t *testing.T) {
	t.Setenv("AI_CLIENT_TYPE", "anthropic")
	t.Setenv("AI_API_KEY", "key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultAnthropicMaxTokens, cfg.AIMaxTokens)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		t.Setenv("AI_CLIENT_TYPE", "openai")
		t.Setenv("AI_API_KEY", "")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("AI_CLIENT_TYPE", "gemini")
		t.Setenv("AI_API_KEY", "key")
		_, err := LoadConfig("")
		assert.ErrorContains(t, err, "unknown AI_CLIENT_TYPE")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("AI_API_KEY", "key")
		t.Setenv("AI_TIMEOUT", "soon")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}

func TestLoadConfig_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AI_CLIENT_TYPE=ollama\nSERVER_PORT=9999\nCHAT_JWT_SECRET=s3cret\n"), 0o600))
	// godotenv does not override variables that are already set
	t.Setenv("AI_CLIENT_TYPE", "")
	os.Unsetenv("AI_CLIENT_TYPE")
	t.Setenv("SERVER_PORT", "")
	os.Unsetenv("SERVER_PORT")
	t.Setenv("CHAT_JWT_SECRET", "")
	os.Unsetenv("CHAT_JWT_SECRET")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, AIClientOllama, cfg.AIClientType)
	assert.Equal(t, "9999", cfg.ServerPort)
	assert.True(t, cfg.AuthEnabled())
}
