// Package main provides tests for the mdtables CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/mdtables/internal/cli"
	"github.com/leapstack-labs/mdtables/internal/cli/config"
)

const doc = `# Inventory

| Item | Count |
| --- | ---: |
| Pens | 12 |
| Ink | 3 |
`

// setupRoot creates a document root with one markdown file.
func setupRoot(t *testing.T) string {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "inventory.md"), []byte(doc), 0600); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "mdtables") {
		t.Errorf("version output should contain 'mdtables', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"serve", "list", "show", "sort", "export", "import", "undo", "edit", "init"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestListCommand(t *testing.T) {
	dir := setupRoot(t)

	output, err := execute(t, "list", "--root", dir, "--output", "markdown")
	if err != nil {
		t.Fatalf("list command error = %v", err)
	}
	if !strings.Contains(output, "| inventory.md | 1 |") {
		t.Errorf("list output should contain the document, got: %s", output)
	}
}

func TestShowCommandJSON(t *testing.T) {
	dir := setupRoot(t)

	output, err := execute(t, "show", filepath.Join(dir, "inventory.md"), "--root", dir, "--output", "json")
	if err != nil {
		t.Fatalf("show command error = %v", err)
	}
	if !strings.Contains(output, `"headers"`) || !strings.Contains(output, `"Pens"`) {
		t.Errorf("show output should contain table JSON, got: %s", output)
	}
}

func TestSortCommand(t *testing.T) {
	dir := setupRoot(t)
	path := filepath.Join(dir, "inventory.md")

	_, err := execute(t, "sort", path,
		"--root", dir,
		"--state", filepath.Join(dir, ".mdtables", "history.db"),
		"--column", "1")
	if err != nil {
		t.Fatalf("sort command error = %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read document: %v", err)
	}
	if !strings.Contains(string(b), "| Ink | 3 |\n| Pens | 12 |") {
		t.Errorf("document should be sorted by count, got: %s", b)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}
