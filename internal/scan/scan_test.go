package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"slopchop/internal/check"
	"slopchop/internal/locality"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestRunAggregatesTotals(t *testing.T) {
	dir := t.TempDir()
	p1 := writeTemp(t, dir, "a.go", "package p\n\nfunc F() {}\n")
	p2 := writeTemp(t, dir, "b.go", "package p\n\nfunc G() { panic(\"x\") }\n")

	rules := check.Rules{MaxFileTokens: 10000, MaxCognitiveComplexity: 10, MaxNestingDepth: 10, MaxFunctionArgs: 10, MaxFunctionWords: 10}
	report, err := Run(context.Background(), []string{p1, p2}, Options{Rules: rules, Locality: locality.Config{Mode: locality.Off}})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Files) != 2 {
		t.Fatalf("expected 2 file reports, got %d", len(report.Files))
	}
	wantViolations := 0
	for _, f := range report.Files {
		wantViolations += len(f.Violations)
	}
	if report.TotalViolations != wantViolations {
		t.Fatalf("TotalViolations = %d, want sum of files' violations %d", report.TotalViolations, wantViolations)
	}
	if report.TotalViolations == 0 {
		t.Fatal("expected at least one violation from the panic() call")
	}
}

func TestRunPropagatesReadError(t *testing.T) {
	_, err := Run(context.Background(), []string{"/nonexistent/path/does-not-exist.go"}, Options{})
	if err == nil {
		t.Fatal("expected an error for an unreadable file")
	}
}
