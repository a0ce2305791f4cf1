package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, "botgpt", cfg.PostgresDB)
	assert.False(t, cfg.UseInMemoryStore)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.Equal(t, "llama3-70b-8192", cfg.ModelName)
	assert.InDelta(t, 0.7, cfg.ModelTemperature, 0.001)
	assert.Equal(t, 1024, cfg.ModelMaxTokens)
	assert.Equal(t, "8000", cfg.ServerPort)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("USE_IN_MEMORY", "true")
	t.Setenv("MODEL_MAX_TOKENS", "256")
	t.Setenv("MODEL_TEMPERATURE", "0.2")
	t.Setenv("GROQ_API_KEY", "test-key")

	cfg := LoadConfig()
	assert.True(t, cfg.UseInMemoryStore)
	assert.Equal(t, 256, cfg.ModelMaxTokens)
	assert.InDelta(t, 0.2, cfg.ModelTemperature, 0.001)
	assert.Equal(t, "test-key", cfg.GroqAPIKey)
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	t.Setenv("USE_IN_MEMORY", "definitely")
	t.Setenv("MODEL_MAX_TOKENS", "lots")
	t.Setenv("MODEL_TEMPERATURE", "warm")

	cfg := LoadConfig()
	assert.False(t, cfg.UseInMemoryStore)
	assert.Equal(t, 1024, cfg.ModelMaxTokens)
	assert.InDelta(t, 0.7, cfg.ModelTemperature, 0.001)
}
