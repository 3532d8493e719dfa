// ABOUTME: Tests for the history command
// ABOUTME: Seeds the local store directly and checks the listing
package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/theepicsaxguy/OpenVox/internal/history"
)

func TestHistoryCommandEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://studio.test:5000")

	out, _, err := runCLI(t, []string{"history"}, cfgPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No listening history yet.")
}

func TestHistoryCommandListsEntries(t *testing.T) {
	cfgPath := writeTestConfig(t, "http://studio.test:5000")
	dbPath := filepath.Join(filepath.Dir(cfgPath), "state", "history.db")

	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	entry := history.Entry{
		ServerURL:  "http://studio.test:5000",
		EpisodeID:  7,
		Title:      "Evening News",
		ChunkIndex: 2,
		Position:   12.5,
		Percent:    48,
		Duration:   600,
	}
	if err := store.Touch(context.Background(), entry); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, []string{"history"}, cfgPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Evening News")
	requireContains(t, out, "chunk 3 at 0:13")
	requireContains(t, out, "48%")

	out, _, err = runCLI(t, []string{"history", "--clear"}, cfgPath)
	if err != nil {
		t.Fatalf("history --clear: %v", err)
	}
	requireContains(t, out, "Cleared listening history.")

	out, _, err = runCLI(t, []string{"history"}, cfgPath)
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	requireContains(t, out, "No listening history yet.")
}
