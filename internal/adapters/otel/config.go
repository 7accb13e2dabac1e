package otel

import "github.com/emiliopalmerini/helix-console/internal/infrastructure/config"

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// ConfigFrom maps the HELIX_OTEL_* settings.
func ConfigFrom(t config.Telemetry) Config {
	return Config{
		Endpoint: t.Endpoint,
		Enabled:  t.Enabled,
		Insecure: t.Insecure,
	}
}
