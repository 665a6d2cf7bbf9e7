package patch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestApplySuccess(t *testing.T) {
	original := "fn main() {\n    println!(\"Old\");\n}\n// footer\n"
	body := "BASE_SHA256: " + sha256Hex(original) + "\nLEFT_CTX:\nfn main() {\nOLD:\n    println!(\"Old\");\nRIGHT_CTX:\n}\nNEW:\n    println!(\"New\");\n"

	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	result, err := Apply(original, p)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if strings.Contains(result, "Old") {
		t.Errorf("result still contains Old: %q", result)
	}
	if !strings.Contains(result, "New") {
		t.Errorf("result missing New: %q", result)
	}
}

func TestApplyRejectsMissingHashForV1(t *testing.T) {
	body := "LEFT_CTX:\nfn main() {\nOLD:\nfoo\nRIGHT_CTX:\n}\nNEW:\nbar\n"
	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Apply("fn main() {\nfoo\n}\n", p)
	if err == nil {
		t.Fatal("expected error for missing BASE_SHA256 on V1 patch")
	}
}

func TestApplyRejectsHashMismatch(t *testing.T) {
	body := "BASE_SHA256: deadbeef\nLEFT_CTX:\nfn main() {\nOLD:\nfoo\nRIGHT_CTX:\n}\nNEW:\nbar\n"
	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Apply("fn main() {\nfoo\n}\n", p)
	if !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("expected ErrHashMismatch, got %v", err)
	}
}

func TestApplyAmbiguousMatch(t *testing.T) {
	original := "repeat\nrepeat\n// footer\n"
	body := "BASE_SHA256: " + sha256Hex(original) + "\nLEFT_CTX:\nOLD:\nrepeat\nRIGHT_CTX:\nNEW:\nonce\n"
	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Apply(original, p)
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "Ambiguous") {
		t.Errorf("diagnostic missing 'Ambiguous': %v", err)
	}
	if !strings.Contains(err.Error(), "Line 1") || !strings.Contains(err.Error(), "Line 2") {
		t.Errorf("diagnostic missing line numbers: %v", err)
	}
}

func TestApplyZeroMatches(t *testing.T) {
	original := "fn main() {\n    println!(\"Hello\");\n}\n"
	body := "BASE_SHA256: " + sha256Hex(original) + "\nLEFT_CTX:\nOLD:\n    println!(\"Goodbye\");\nRIGHT_CTX:\nNEW:\n    println!(\"New\");\n"
	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = Apply(original, p)
	if !errors.Is(err, ErrZeroMatches) {
		t.Fatalf("expected ErrZeroMatches, got %v", err)
	}
}

func TestParseV0Deprecated(t *testing.T) {
	body := "<<<< SEARCH\nold line\n====\nnew line\n>>>> REPLACE\n"
	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if p.Format != V0 {
		t.Fatalf("expected V0 format")
	}
	if len(p.Instructions) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(p.Instructions))
	}
	result, err := Apply("old line\n", p)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if !strings.Contains(result, "new line") {
		t.Errorf("result missing new line: %q", result)
	}
}
