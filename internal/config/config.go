// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL           string
	StateDBPath          string
	HealthTimeout        time.Duration
	ErrorDisplayDuration time.Duration
	Web                  WebConfig
	LogLevel             slog.Level
}

// WebConfig controls the browser view server.
type WebConfig struct {
	Addr           string
	AllowedOrigins []string // empty = same host only
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:           strings.TrimRight(getEnv("TUTOR_API_URL", "http://localhost:8000"), "/"),
		StateDBPath:          getEnv("STATE_DB_PATH", "./data/tutorchat.db"),
		HealthTimeout:        getEnvDuration("HEALTH_TIMEOUT", 5*time.Second),
		ErrorDisplayDuration: getEnvDuration("ERROR_DISPLAY_DURATION", 5*time.Second),
		Web: WebConfig{
			Addr:           getEnv("WEB_ADDR", "127.0.0.1:8090"),
			AllowedOrigins: getEnvList("WEB_ALLOWED_ORIGINS"),
		},
		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("TUTOR_API_URL cannot be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("TUTOR_API_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.StateDBPath == "" {
		return fmt.Errorf("STATE_DB_PATH cannot be empty")
	}
	if c.HealthTimeout <= 0 {
		return fmt.Errorf("HEALTH_TIMEOUT must be > 0")
	}
	if c.ErrorDisplayDuration <= 0 {
		return fmt.Errorf("ERROR_DISPLAY_DURATION must be > 0")
	}
	if c.Web.Addr == "" {
		return fmt.Errorf("WEB_ADDR cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
