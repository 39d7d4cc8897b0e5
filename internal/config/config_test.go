package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadResolvesDottedKeysFromEnv(t *testing.T) {
	t.Setenv("LINGUA_JWT_SECRET", "supersecret")
	t.Setenv("LINGUA_OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "supersecret", cfg.JWTSecret)
	require.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("LINGUA_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
