package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TUTOR_API_URL", "STATE_DB_PATH", "HEALTH_TIMEOUT",
		"ERROR_DISPLAY_DURATION", "WEB_ADDR", "WEB_ALLOWED_ORIGINS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	// t.Setenv with "" still counts as set; restore defaults for the
	// values that must not be empty.
	t.Setenv("TUTOR_API_URL", "http://localhost:8000/")
	t.Setenv("STATE_DB_PATH", "./data/tutorchat.db")
	t.Setenv("WEB_ADDR", "127.0.0.1:8090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.ErrorDisplayDuration != 5*time.Second {
		t.Errorf("ErrorDisplayDuration = %v, want 5s", cfg.ErrorDisplayDuration)
	}
	if cfg.HealthTimeout != 5*time.Second {
		t.Errorf("HealthTimeout = %v, want 5s", cfg.HealthTimeout)
	}
	if len(cfg.Web.AllowedOrigins) != 0 {
		t.Errorf("expected no allowed origins, got %v", cfg.Web.AllowedOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TUTOR_API_URL", "https://tutor.example.com")
	t.Setenv("STATE_DB_PATH", "/tmp/state.db")
	t.Setenv("HEALTH_TIMEOUT", "2s")
	t.Setenv("ERROR_DISPLAY_DURATION", "750ms")
	t.Setenv("WEB_ADDR", ":9000")
	t.Setenv("WEB_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HealthTimeout != 2*time.Second {
		t.Errorf("HealthTimeout = %v", cfg.HealthTimeout)
	}
	if cfg.ErrorDisplayDuration != 750*time.Millisecond {
		t.Errorf("ErrorDisplayDuration = %v", cfg.ErrorDisplayDuration)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.Web.AllowedOrigins)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestValidateRejectsRelativeURL(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		APIBaseURL:           "localhost:8000",
		StateDBPath:          "x.db",
		HealthTimeout:        time.Second,
		ErrorDisplayDuration: time.Second,
		Web:                  WebConfig{Addr: ":8090"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for URL without scheme")
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TUTOR_API_URL", "http://localhost:8000")
	t.Setenv("STATE_DB_PATH", "x.db")
	t.Setenv("WEB_ADDR", ":8090")
	t.Setenv("HEALTH_TIMEOUT", "soon")
	t.Setenv("ERROR_DISPLAY_DURATION", "5s")
	t.Setenv("WEB_ALLOWED_ORIGINS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HealthTimeout != 5*time.Second {
		t.Errorf("HealthTimeout = %v, want fallback 5s", cfg.HealthTimeout)
	}
}
