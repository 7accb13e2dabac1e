package helixapi

import "time"

// Config holds backend client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}
