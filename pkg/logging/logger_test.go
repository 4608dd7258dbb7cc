package logging

import (
	"testing"

	"github.com/channelmux/channelmux/pkg/config"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"json info", "INFO", "json"},
		{"text debug", "DEBUG", "text"},
		{"bad level falls back", "notalevel", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.LoggingConfig{
				Level:  tt.level,
				Format: tt.format,
			}
			if err := InitLogger(cfg); err != nil {
				t.Fatalf("Failed to initialize logger: %v", err)
			}
			if Logger == nil {
				t.Fatal("Logger should be set after InitLogger")
			}
		})
	}
}

func TestGetLoggerFallback(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	Logger = nil
	if got := GetLogger(); got == nil {
		t.Error("GetLogger() should never return nil")
	}
}

func TestWithComponent(t *testing.T) {
	logger := WithComponent("tenant-router")
	if logger == nil {
		t.Error("WithComponent() should return a logger")
	}
}
