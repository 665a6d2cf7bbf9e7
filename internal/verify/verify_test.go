package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"slopchop/internal/check"
	"slopchop/internal/locality"
)

func TestRunExecutesCommandsAndScan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	os.WriteFile(path, []byte("package a\n\nfunc F() {}\n"), 0644)

	rules := check.Rules{MaxFileTokens: 10000, MaxCognitiveComplexity: 10, MaxNestingDepth: 10, MaxFunctionArgs: 10, MaxFunctionWords: 10}
	report, err := Run(context.Background(), dir, []string{path}, Options{
		Commands: []string{"true"},
		Rules:    rules,
		Locality: locality.Config{Mode: locality.Off},
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Commands) != 1 {
		t.Fatalf("expected 1 command result, got %d", len(report.Commands))
	}
	if report.Commands[0].ExitCode != 0 {
		t.Fatalf("expected exit code 0 for 'true', got %d", report.Commands[0].ExitCode)
	}
	if !report.Passed {
		t.Fatal("expected overall pass for a clean file and a passing command")
	}
}

func TestRunFailsWhenCommandFails(t *testing.T) {
	dir := t.TempDir()
	report, err := Run(context.Background(), dir, nil, Options{Commands: []string{"false"}})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Passed {
		t.Fatal("expected failure when a check command exits nonzero")
	}
}

func TestExtractLabel(t *testing.T) {
	if got := ExtractLabel("cargo test --release"); got != "cargo test" {
		t.Errorf("ExtractLabel = %q, want %q", got, "cargo test")
	}
	if got := ExtractLabel("make"); got != "make" {
		t.Errorf("ExtractLabel = %q, want %q", got, "make")
	}
}
