// ABOUTME: Tests for logger construction
// ABOUTME: Covers level parsing, file output, and format selection
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "voxplay.log")

	logger, err := New(Options{Level: "info", Format: "text", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("player started", slog.String("episode", "7"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "player started") {
		t.Errorf("expected log line in file, got %q", string(data))
	}
	if !strings.Contains(string(data), "episode=7") {
		t.Errorf("expected attr in text output, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDebugFiltered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxplay.log")
	logger, err := New(Options{Level: "warn", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "quiet") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(string(data), "loud") {
		t.Error("warn line should be written")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report disabled.
	logger.Info("dropped")
	if logger.Enabled(nil, slog.LevelError) {
		t.Error("nop logger should be disabled at every level")
	}
}
