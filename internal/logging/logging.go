package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// Debug forces debug level with the human-readable console encoder.
	Debug bool
	// Quiet drops everything below warn, for commands whose stdout is data.
	Quiet bool
}

// New builds the process logger. Logs go to stderr so command output on
// stdout stays machine readable.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	if opts.Debug || level == zapcore.DebugLevel {
		config = zap.NewDevelopmentConfig()
		level = zapcore.DebugLevel
	}
	if opts.Quiet && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a level name to zap's level.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
