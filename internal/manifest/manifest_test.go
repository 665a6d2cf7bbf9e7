package manifest

import "testing"

func TestValidatePathRejectsParentTraversal(t *testing.T) {
	if err := ValidatePath("../etc/passwd"); err == nil {
		t.Fatal("expected error for parent traversal")
	}
}

func TestValidatePathRejectsAbsolute(t *testing.T) {
	if err := ValidatePath("/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute path")
	}
	if err := ValidatePath(`C:\Windows\system32`); err == nil {
		t.Fatal("expected error for windows absolute path")
	}
}

func TestValidatePathRejectsBlockedDir(t *testing.T) {
	if err := ValidatePath(".git/config"); err == nil {
		t.Fatal("expected error for blocked dir")
	}
}

func TestValidatePathAllowsAllowlistedDotfile(t *testing.T) {
	if err := ValidatePath(".gitignore"); err != nil {
		t.Fatalf("unexpected error for allowlisted dotfile: %v", err)
	}
}

func TestValidatePathRejectsOtherDotfile(t *testing.T) {
	if err := ValidatePath(".env"); err == nil {
		t.Fatal("expected error for non-allowlisted dotfile")
	}
}

func TestValidateContentRejectsEmpty(t *testing.T) {
	if err := ValidateContent("src/a.go", ""); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestValidateContentRejectsMarkdownFenceInGoFile(t *testing.T) {
	if err := ValidateContent("src/a.go", "package a\n```\nfoo\n```\n"); err == nil {
		t.Fatal("expected error for markdown fence in .go file")
	}
}

func TestValidateContentAllowsFenceWhenIgnored(t *testing.T) {
	content := "package a\n``` // slopchop:ignore\n"
	if err := ValidateContent("src/a.go", content); err != nil {
		t.Fatalf("expected ignore directive to suppress fence error, got: %v", err)
	}
}

func TestValidateContentRejectsTruncationSentinel(t *testing.T) {
	if err := ValidateContent("src/a.go", "package a\n// rest of the file unchanged\n"); err == nil {
		t.Fatal("expected error for truncation sentinel")
	}
}

func TestValidateRejectsProtectedFile(t *testing.T) {
	entries := []Entry{{Path: "go.sum", Op: Update}}
	contents := map[string]string{"go.sum": "some content\n"}
	if err := Validate(entries, contents); err == nil {
		t.Fatal("expected error for protected file overwrite")
	}
}

func TestValidateRejectsMissingFileBlock(t *testing.T) {
	entries := []Entry{{Path: "src/a.go", Op: New}}
	if err := Validate(entries, map[string]string{}); err == nil {
		t.Fatal("expected error for missing FILE block")
	}
}

func TestValidateRejectsOrphanFileBlock(t *testing.T) {
	entries := []Entry{}
	contents := map[string]string{"src/a.go": "package a\n"}
	if err := Validate(entries, contents); err == nil {
		t.Fatal("expected error for orphan FILE block")
	}
}

func TestValidateAcceptsCleanPayload(t *testing.T) {
	entries := []Entry{{Path: "src/a.go", Op: New}}
	contents := map[string]string{"src/a.go": "package a\n"}
	if err := Validate(entries, contents); err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
}

func TestValidateDeleteMustNotHaveContent(t *testing.T) {
	entries := []Entry{{Path: "src/old.go", Op: Delete}}
	contents := map[string]string{"src/old.go": "package a\n"}
	if err := Validate(entries, contents); err == nil {
		t.Fatal("expected error for DELETE entry with a FILE block")
	}
}
