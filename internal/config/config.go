// Package config provides environment configuration for the console.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Backend settings
	APIBaseURL     string
	RequestTimeout time.Duration
	ChatTimeout    time.Duration

	// Token persistence
	TokenFile string

	// Logging
	LogLevel string
	LogFile  string

	// Diagnostics listener (empty disables it)
	DiagAddr string
}

// Load reads configuration from the environment, with a best-effort
// .env file load first.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 15*time.Second),
		ChatTimeout:    getDurationEnv("CHAT_TIMEOUT", 2*time.Minute),

		TokenFile: getEnv("TOKEN_FILE", defaultTokenFile()),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		DiagAddr: getEnv("DIAG_ADDR", ""),
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".console-token"
	}
	return filepath.Join(home, ".conversational-console", "token")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
