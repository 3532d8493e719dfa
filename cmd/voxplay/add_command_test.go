// ABOUTME: Tests for the add command
// ABOUTME: Imports documents from a file and from stdin against the fake server
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddCommandCreatesEpisode(t *testing.T) {
	ts := newFakeStudio(t, nil)
	cfgPath := writeTestConfig(t, ts.URL)

	docPath := filepath.Join(t.TempDir(), "morning notes.txt")
	if err := os.WriteFile(docPath, []byte("A short document to read aloud."), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	out, _, err := runCLI(t, []string{"add", docPath}, cfgPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Created episode #12 (morning notes)")
	requireContains(t, out, "voxplay play 12")
}

func TestAddCommandReadsStdin(t *testing.T) {
	ts := newFakeStudio(t, nil)
	cfgPath := writeTestConfig(t, ts.URL)

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader("Dictated text."))
	cmd.SetArgs([]string{"--config", cfgPath, "add", "-", "--title", "Dictation"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("add -: %v", err)
	}
	requireContains(t, stdout.String(), "Created episode #12 (Dictation)")
}

func TestAddCommandRejectsMissingFile(t *testing.T) {
	ts := newFakeStudio(t, nil)
	cfgPath := writeTestConfig(t, ts.URL)

	_, _, err := runCLI(t, []string{"add", filepath.Join(t.TempDir(), "nope.txt")}, cfgPath)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	requireContains(t, err.Error(), "does not exist")
}

func TestAddCommandRejectsEmptyDocument(t *testing.T) {
	ts := newFakeStudio(t, nil)
	cfgPath := writeTestConfig(t, ts.URL)

	docPath := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(docPath, []byte("   \n"), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	_, _, err := runCLI(t, []string{"add", docPath}, cfgPath)
	if err == nil {
		t.Fatal("expected an error for an empty document")
	}
	requireContains(t, err.Error(), "empty")
}
