package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://localhost:8001" {
		t.Errorf("APIURL = %s", cfg.APIURL)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.HealthInterval != 5*time.Second {
		t.Errorf("HealthInterval = %s", cfg.HealthInterval)
	}
	if cfg.ReconnectDelay != 3*time.Second {
		t.Errorf("ReconnectDelay = %s", cfg.ReconnectDelay)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry must be off by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HELIX_API_URL", "https://helix.example.com")
	t.Setenv("HELIX_WS_URL", "wss://push.example.com")
	t.Setenv("HELIX_TIMEOUT", "30s")
	t.Setenv("HELIX_JOURNAL_URL", "libsql://journal.example.com")
	t.Setenv("HELIX_OTEL_ENABLED", "true")
	t.Setenv("HELIX_OTEL_ENDPOINT", "localhost:4317")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://helix.example.com" || cfg.WSURL != "wss://push.example.com" {
		t.Errorf("unexpected URLs: %s %s", cfg.APIURL, cfg.WSURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Journal.URL != "libsql://journal.example.com" {
		t.Errorf("Journal.URL = %s", cfg.Journal.URL)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("unexpected telemetry: %+v", cfg.Telemetry)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"HELIX_TIMEOUT":         "0s",
		"HELIX_OTEL_ENABLED":    "true",
		"HELIX_HEALTH_INTERVAL": "-1s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("HELIX_RECONNECT_DELAY", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}
