package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{" WARN ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want zapcore.Level
	}{
		{"default", Options{}, zapcore.InfoLevel},
		{"debug flag", Options{Debug: true}, zapcore.DebugLevel},
		{"debug level", Options{Level: "debug"}, zapcore.DebugLevel},
		{"quiet", Options{Quiet: true}, zapcore.WarnLevel},
		{"quiet keeps error", Options{Level: "error", Quiet: true}, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := logger.Level(); got != tt.want {
				t.Errorf("expected level %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Error("expected error")
	}
}
