package config

import (
	"path/filepath"
	"testing"

	"slopchop/internal/locality"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "slopchop.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Rules.MaxFileTokens == 0 {
		t.Fatal("expected nonzero default MaxFileTokens")
	}
	if cfg.Rules.Locality.Mode != "warn" {
		t.Fatalf("expected default locality mode 'warn', got %q", cfg.Rules.Locality.Mode)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slopchop.yaml")
	cfg := DefaultConfig()
	cfg.Rules.MaxFileTokens = 1234
	cfg.Commands.Check = []string{"go test ./..."}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Rules.MaxFileTokens != 1234 {
		t.Fatalf("MaxFileTokens = %d, want 1234", loaded.Rules.MaxFileTokens)
	}
	if len(loaded.Commands.Check) != 1 || loaded.Commands.Check[0] != "go test ./..." {
		t.Fatalf("Commands.Check = %v, want [go test ./...]", loaded.Commands.Check)
	}
}

func TestCheckRulesProjection(t *testing.T) {
	cfg := DefaultConfig()
	rules := cfg.CheckRules()
	if rules.MaxFileTokens != cfg.Rules.MaxFileTokens {
		t.Fatalf("CheckRules().MaxFileTokens = %d, want %d", rules.MaxFileTokens, cfg.Rules.MaxFileTokens)
	}
}

func TestLocalityValidatorConfigProjection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules.Locality.Mode = "error"
	lc := cfg.LocalityValidatorConfig()
	if lc.Mode != locality.Error {
		t.Fatalf("LocalityValidatorConfig().Mode = %v, want error", lc.Mode)
	}
}
