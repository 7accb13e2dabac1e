package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix namespaces every console variable, e.g. HELIX_API_URL.
const Prefix = "HELIX"

// Journal holds the run journal database location. An empty URL means the
// local file under the data directory.
type Journal struct {
	URL       string `envconfig:"JOURNAL_URL"`
	AuthToken string `envconfig:"JOURNAL_AUTH_TOKEN"`
}

// Telemetry holds the OTLP metrics exporter settings.
type Telemetry struct {
	Enabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	Endpoint string `envconfig:"OTEL_ENDPOINT"`
	Insecure bool   `envconfig:"OTEL_INSECURE" default:"false"`
}

// Console is the whole console configuration.
type Console struct {
	APIURL         string        `envconfig:"API_URL" default:"http://localhost:8001"`
	WSURL          string        `envconfig:"WS_URL"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"10s"`
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"5s"`
	ReconnectDelay time.Duration `envconfig:"RECONNECT_DELAY" default:"3s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	DataDir        string        `envconfig:"DATA_DIR"`
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8080"`
	PageSize       int           `envconfig:"PAGE_SIZE" default:"500"`

	// Embedded so their variables keep the plain HELIX_ prefix.
	Journal
	Telemetry
}

// Load reads HELIX_* variables.
func Load() (*Console, error) {
	var cfg Console
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the console cannot work with.
func (c *Console) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%s_API_URL must not be empty", Prefix)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s_TIMEOUT must be positive", Prefix)
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("%s_HEALTH_INTERVAL must be positive", Prefix)
	}
	if c.ReconnectDelay < 0 {
		return fmt.Errorf("%s_RECONNECT_DELAY must not be negative", Prefix)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("%s_OTEL_ENDPOINT is required when telemetry is enabled", Prefix)
	}
	return nil
}
