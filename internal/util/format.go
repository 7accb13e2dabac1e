package util

import (
	"fmt"
	"time"
)

// FormatNumber formats an int64 with K/M suffix for readability.
// Examples: 500 -> "500", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// FormatSeconds renders a case duration: 0.42 -> "0.42s", 75 -> "1m15s".
func FormatSeconds(s float64) string {
	if s < 60 {
		return fmt.Sprintf("%.2fs", s)
	}
	return (time.Duration(s) * time.Second).String()
}

// FormatPercent renders a 0..100 rate with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatDateTime formats a time as 2006-01-02 15:04:05 in local time.
// The zero time renders as "-".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatElapsed renders the time between start and end, or start and now
// when end is zero, rounded to the second.
func FormatElapsed(start, end time.Time) string {
	if start.IsZero() {
		return "-"
	}
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(start).Round(time.Second).String()
}

// ParseTimeSQLite parses a SQLite datetime or RFC3339 string to time.Time.
// Handles "YYYY-MM-DD HH:MM:SS" (SQLite) and RFC3339 formats.
// Returns zero time if parsing fails.
func ParseTimeSQLite(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
