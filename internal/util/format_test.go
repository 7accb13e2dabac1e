package util

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{500, "500"},
		{1500, "1.5K"},
		{1500000, "1.5M"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00s"},
		{0.42, "0.42s"},
		{59.999, "60.00s"},
		{75, "1m15s"},
	}
	for _, tt := range tests {
		if got := FormatSeconds(tt.in); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(66.666); got != "66.7%" {
		t.Errorf("FormatPercent = %q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if got := FormatElapsed(start, start.Add(90*time.Second+400*time.Millisecond)); got != "1m30s" {
		t.Errorf("FormatElapsed = %q", got)
	}
	if got := FormatElapsed(time.Time{}, start); got != "-" {
		t.Errorf("FormatElapsed(zero) = %q", got)
	}
}

func TestFormatDateTime_Zero(t *testing.T) {
	if got := FormatDateTime(time.Time{}); got != "-" {
		t.Errorf("FormatDateTime(zero) = %q", got)
	}
}

func TestParseTimeSQLite(t *testing.T) {
	want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	for _, s := range []string{"2026-03-01 09:30:00", "2026-03-01T09:30:00Z", "2026-03-01T09:30:00.000000000Z"} {
		if got := ParseTimeSQLite(s); !got.Equal(want) {
			t.Errorf("ParseTimeSQLite(%q) = %v", s, got)
		}
	}
	if !ParseTimeSQLite("garbage").IsZero() {
		t.Error("expected zero time for garbage")
	}
}

func TestDataDir(t *testing.T) {
	if got, _ := DataDir("/tmp/helix"); got != "/tmp/helix" {
		t.Errorf("DataDir(override) = %q", got)
	}
	t.Setenv("XDG_DATA_HOME", "/xdg")
	if got, _ := DataDir(""); got != "/xdg/helix-console" {
		t.Errorf("DataDir() = %q", got)
	}
}
