// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, file parsing, normalization, and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Error("expected exists=false for missing file")
	}
	if resolved != path {
		t.Errorf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Playback.SaveIntervalSeconds != 30 || cfg.Playback.SkipSeconds != 15 {
		t.Errorf("unexpected playback defaults: %+v", cfg.Playback)
	}
	if !cfg.Server.Discover {
		t.Error("expected discovery on by default")
	}
	if cfg.SaveInterval() != 30*time.Second {
		t.Errorf("unexpected save interval: %v", cfg.SaveInterval())
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
url = "http://vox.local:5000/"
token = " sekrit "

[playback]
save_interval_seconds = 10
skip_seconds = 30

[logging]
level = "DEBUG"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Error("expected exists=true")
	}
	if cfg.Server.URL != "http://vox.local:5000" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Server.URL)
	}
	if cfg.Server.Token != "sekrit" {
		t.Errorf("expected token trimmed, got %q", cfg.Server.Token)
	}
	if cfg.Playback.SaveIntervalSeconds != 10 || cfg.Playback.SkipSeconds != 30 {
		t.Errorf("unexpected playback settings: %+v", cfg.Playback)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("expected lowercased logging settings, got %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for bad logging level")
	}
}

func TestValidateRequiresServerWhenDiscoveryOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\ndiscover = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error when discovery off and no URL")
	}
}

func TestStatePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[paths]\nstate_dir = \"" + filepath.Join(dir, "state") + "\"\nlog_dir = \"" + filepath.Join(dir, "logs") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected directory %q to exist: %v", p, err)
		}
	}
	if !strings.HasPrefix(cfg.HistoryDBPath(), cfg.Paths.StateDir) {
		t.Errorf("history path %q should live under state dir", cfg.HistoryDBPath())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	// The sample must parse cleanly with defaults intact.
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Error("expected sample file to exist")
	}
	if cfg.Playback.SaveIntervalSeconds != 30 {
		t.Errorf("sample should keep the 30s save interval, got %d", cfg.Playback.SaveIntervalSeconds)
	}
}
