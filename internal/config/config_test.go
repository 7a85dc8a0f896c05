package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("CHAT_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DIAG_ADDR", "")

	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ChatTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DiagAddr)
	assert.NotEmpty(t, cfg.TokenFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://rag.example.com")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("CHAT_TIMEOUT", "45s")
	t.Setenv("TOKEN_FILE", "/tmp/tok")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DIAG_ADDR", "127.0.0.1:9090")

	cfg := Load()

	assert.Equal(t, "https://rag.example.com", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 45*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "/tmp/tok", cfg.TokenFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9090", cfg.DiagAddr)
}

func TestLoadIgnoresMalformedDurations(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("CHAT_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ChatTimeout)
}
