package domain

import (
	"strings"
	"time"
)

// LogLevel grades a line of the runner log feed.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// ParseLogLevel normalizes a level, defaulting to INFO.
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// LogEntry is one line of the runner log feed.
type LogEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Level     LogLevel  `json:"level" yaml:"level"`
	Message   string    `json:"message" yaml:"message"`
}

// Clock returns the wall-clock time of the entry as shown in the feed.
func (e LogEntry) Clock() string {
	return e.Timestamp.Format("15:04:05")
}
