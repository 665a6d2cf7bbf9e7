package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slopchop/internal/payload"
	"slopchop/internal/stage"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func withWorkspace(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	ws := t.TempDir()
	workspace = ws
	t.Cleanup(func() { workspace = "" })
	return ws
}

func TestRunInitWritesDefaultConfig(t *testing.T) {
	ws := withWorkspace(t)
	cmd := &cobra.Command{}

	if err := runInit(cmd, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws, "slopchop.yaml")); err != nil {
		t.Fatalf("slopchop.yaml not written: %v", err)
	}

	if err := runInit(cmd, nil); err == nil {
		t.Fatal("expected second runInit to refuse to overwrite")
	}
}

func TestRunScanOnCleanWorkspacePasses(t *testing.T) {
	ws := withWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	if err := runScan(cmd, nil); err != nil {
		t.Fatalf("runScan: %v", err)
	}
}

func TestDiscoverSourceFilesSkipsVendorDirs(t *testing.T) {
	ws := t.TempDir()
	must(t, os.MkdirAll(filepath.Join(ws, "vendor", "pkg"), 0755))
	must(t, os.WriteFile(filepath.Join(ws, "vendor", "pkg", "dep.go"), []byte("package pkg\n"), 0644))
	must(t, os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n"), 0644))

	files, err := discoverSourceFiles(ws)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if filepath.Base(filepath.Dir(f)) == "pkg" {
			t.Fatalf("vendor file should have been skipped: %s", f)
		}
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 discovered file, got %d: %v", len(files), files)
	}
}

func TestRunApplyStagesFileAndPatchBlocks(t *testing.T) {
	ws := withWorkspace(t)
	existing := "fn main() {\n    println!(\"Old\");\n}\n// footer\n"
	must(t, os.WriteFile(filepath.Join(ws, "main.rs"), []byte(existing), 0644))

	sum := sha256Hex(existing)
	body := payload.Sigil + " MANIFEST " + payload.Sigil + "\n" +
		"greeting.txt [NEW]\n" +
		payload.Sigil + " END " + payload.Sigil + "\n" +
		payload.Sigil + " FILE " + payload.Sigil + " greeting.txt\n" +
		"hello world\n" +
		payload.Sigil + " END " + payload.Sigil + "\n" +
		payload.Sigil + " PATCH " + payload.Sigil + " main.rs\n" +
		"BASE_SHA256: " + sum + "\n" +
		"LEFT_CTX:\n" +
		"fn main() {\n" +
		"OLD:\n" +
		"    println!(\"Old\");\n" +
		"RIGHT_CTX:\n" +
		"}\n" +
		"NEW:\n" +
		"    println!(\"New\");\n" +
		payload.Sigil + " END " + payload.Sigil + "\n"

	payloadPath := filepath.Join(ws, "payload.txt")
	must(t, os.WriteFile(payloadPath, []byte(body), 0644))

	cmd := &cobra.Command{}
	if err := runApply(cmd, []string{payloadPath}); err != nil {
		t.Fatalf("runApply: %v", err)
	}

	mgr := stage.New(ws)
	if !mgr.Exists() {
		t.Fatal("expected a stage to have been created")
	}

	staged, err := os.ReadFile(filepath.Join(mgr.EffectiveCWD(), "main.rs"))
	if err != nil {
		t.Fatalf("read staged main.rs: %v", err)
	}
	if !strings.Contains(string(staged), "println!(\"New\");") {
		t.Fatalf("patch was not applied in stage, got: %s", staged)
	}

	stagedGreeting, err := os.ReadFile(filepath.Join(mgr.EffectiveCWD(), "greeting.txt"))
	if err != nil {
		t.Fatalf("read staged greeting.txt: %v", err)
	}
	if string(stagedGreeting) != "hello world\n" {
		t.Fatalf("unexpected staged greeting.txt content: %q", stagedGreeting)
	}

	realGreeting, err := os.ReadFile(filepath.Join(ws, "greeting.txt"))
	if err == nil || len(realGreeting) > 0 {
		t.Fatal("apply must not touch the real workspace before promote")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
