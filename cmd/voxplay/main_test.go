// ABOUTME: Shared CLI test helpers and root command tests
// ABOUTME: Runs commands in-process against a fake studio server
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theepicsaxguy/OpenVox/internal/studio"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// writeTestConfig writes a config pointing at serverURL with state under a
// temp dir, and returns its path.
func writeTestConfig(t *testing.T, serverURL string) string {
	t.Helper()
	base := t.TempDir()
	stateDir := filepath.Join(base, "state")
	logDir := filepath.Join(base, "logs")
	for _, dir := range []string{stateDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	content := fmt.Sprintf(
		"[server]\nurl = %q\ndiscover = false\n\n[paths]\nstate_dir = %q\nlog_dir = %q\n",
		serverURL, stateDir, logDir)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// newFakeStudio serves the endpoints the one-shot commands hit.
func newFakeStudio(t *testing.T, tree *studio.LibraryTree) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/studio/library", func(w http.ResponseWriter, r *http.Request) {
		if tree == nil {
			tree = &studio.LibraryTree{}
		}
		if err := json.NewEncoder(w).Encode(tree); err != nil {
			t.Errorf("encode library: %v", err)
		}
	})
	mux.HandleFunc("/studio/sources", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(studio.Source{ID: 3, Title: payload["title"]})
	})
	mux.HandleFunc("/studio/episodes", func(w http.ResponseWriter, r *http.Request) {
		var req studio.CreateEpisodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(studio.Episode{ID: 12, SourceID: req.SourceID, Title: req.Title, Status: studio.EpisodeQueued})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestRootRefusesWithoutTerminal(t *testing.T) {
	ts := newFakeStudio(t, nil)
	cfgPath := writeTestConfig(t, ts.URL)

	_, _, err := runCLI(t, nil, cfgPath)
	if err == nil {
		t.Fatal("expected an error when stdout is not a terminal")
	}
	requireContains(t, err.Error(), "interactive terminal")
}

func TestPlayCommandRejectsBadID(t *testing.T) {
	ts := newFakeStudio(t, nil)
	cfgPath := writeTestConfig(t, ts.URL)

	for _, arg := range []string{"abc", "0"} {
		_, _, err := runCLI(t, []string{"play", arg}, cfgPath)
		if err == nil {
			t.Fatalf("play %q: expected an error", arg)
		}
		requireContains(t, err.Error(), "invalid episode id")
	}
}

func TestVersionFlag(t *testing.T) {
	out, _, err := runCLI(t, []string{"--version"}, "")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	requireContains(t, out, "0.3.0")
}
