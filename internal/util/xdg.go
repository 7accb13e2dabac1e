package util

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDir = "helix-console"

// GetXDGDataDir returns the XDG data directory for the console.
// It respects XDG_DATA_HOME if set, otherwise falls back to ~/.local/share/helix-console
func GetXDGDataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".local", "share", appDir), nil
}

// DataDir returns override when set, else the XDG data directory.
func DataDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return GetXDGDataDir()
}
