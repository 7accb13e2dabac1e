package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestOptions_DSN(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"local file", Options{DataDir: "/data/helix"}, "file:" + filepath.Join("/data/helix", JournalFile), false},
		{"remote no token", Options{URL: "http://localhost:8080"}, "http://localhost:8080", false},
		{"remote token", Options{URL: "libsql://j.turso.io", AuthToken: "a b"}, "libsql://j.turso.io?authToken=a+b", false},
		{"remote token with query", Options{URL: "libsql://j.turso.io?tls=1", AuthToken: "t"}, "libsql://j.turso.io?tls=1&authToken=t", false},
		{"nothing", Options{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.DSN()
			if (err != nil) != tt.wantErr {
				t.Fatalf("DSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_LocalFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	client, err := Open(Options{DataDir: dir, Ping: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = client.Close() }()

	if client.Remote {
		t.Error("expected a local journal")
	}
	if _, err := client.Exec(`CREATE TABLE sample (id INTEGER)`); err != nil {
		t.Errorf("exec on local journal: %v", err)
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	got, err := WithRetry(ctx, 2, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("hrana: stream not found")
		}
		return 42, nil
	})
	if err != nil || got != 42 || calls != 3 {
		t.Errorf("got %d, %v after %d calls", got, err, calls)
	}

	calls = 0
	_, err = WithRetry(ctx, 2, func() (int, error) {
		calls++
		return 0, errors.New("syntax error")
	})
	if err == nil || calls != 1 {
		t.Errorf("expected one call for a non-stream error, got %d (%v)", calls, err)
	}
}
