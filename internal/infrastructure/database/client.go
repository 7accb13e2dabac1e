package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

// JournalFile is the journal database name inside the data directory.
const JournalFile = "journal.db"

// Client wraps the journal connection with Turso-specific retry logic.
type Client struct {
	*sql.DB
	// Remote is true when the journal lives on a libsql server.
	Remote bool
}

// Options configures where the journal lives and how it is opened.
type Options struct {
	// URL of a remote libsql server. Empty means a local file under DataDir.
	URL       string
	AuthToken string
	DataDir   string
	Ping      bool
}

// DSN returns the driver connection string for opts.
func (o Options) DSN() (string, error) {
	if o.URL != "" {
		if o.AuthToken == "" {
			return o.URL, nil
		}
		sep := "?"
		if strings.Contains(o.URL, "?") {
			sep = "&"
		}
		return o.URL + sep + "authToken=" + url.QueryEscape(o.AuthToken), nil
	}
	if o.DataDir == "" {
		return "", fmt.Errorf("journal needs a data directory or a database URL")
	}
	return "file:" + filepath.Join(o.DataDir, JournalFile), nil
}

// Open connects to the run journal.
func Open(opts Options) (*Client, error) {
	dsn, err := opts.DSN()
	if err != nil {
		return nil, err
	}
	if opts.URL == "" {
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if opts.URL != "" {
		// Turso closes idle Hrana streams aggressively, so keep no idle
		// connections around.
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(0)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(1)
	}

	if opts.Ping {
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping journal: %w", err)
		}
	}

	return &Client{DB: db, Remote: opts.URL != ""}, nil
}

// IsStreamError checks if an error is a Turso "stream not found" error.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// WithRetry runs fn again, up to maxRetries times, while it fails with a
// Turso stream error.
func WithRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if !IsStreamError(err) || attempt == maxRetries {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}
