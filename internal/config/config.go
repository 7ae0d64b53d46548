// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 3000).
	Port int

	// BaseURL is the public-facing URL of this app, used for redirects and
	// for the same-origin referer check on the sign-in page.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// API holds settings for the remote blog API.
	API APIConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Client holds per-browser client state settings.
	Client ClientConfig
}

// APIConfig holds settings for the remote blog API that owns all business
// data. Inkwell is purely a client of this API; it has no database of its own.
type APIConfig struct {
	// URL is the base address of the blog API (default: "http://localhost:8000").
	URL string

	// Timeout is the per-request timeout for outbound API calls.
	Timeout time.Duration
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// ClientConfig holds settings for per-browser client state.
type ClientConfig struct {
	// StateTTL is how long the persisted signed-in hint survives without
	// activity. It mirrors the backend refresh-token lifetime so the hint
	// doesn't outlive any possible session.
	StateTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 3000),
		BaseURL:  getEnv("BASE_URL", "http://localhost:3000"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		API: APIConfig{
			URL:     getEnv("API_URL", "http://localhost:8000"),
			Timeout: getEnvDuration("API_TIMEOUT", 15*time.Second),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Client: ClientConfig{
			StateTTL: getEnvDuration("CLIENT_STATE_TTL", 7*24*time.Hour),
		},
	}

	// The API base must be an absolute URL -- every outbound call is resolved
	// against it.
	if u, err := url.Parse(cfg.API.URL); err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("API_URL must be an absolute URL, got %q", cfg.API.URL)
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("BASE_URL must be an absolute URL, got %q", cfg.BaseURL)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "168h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
