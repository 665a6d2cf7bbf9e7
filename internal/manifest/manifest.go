// Package manifest implements the manifest & content validator (C10): path
// safety, protected-file checks, manifest/content cross-consistency, and
// truncation/markdown-fence detection.
package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Operation is a manifest entry's intent.
type Operation string

const (
	New    Operation = "NEW"
	Update Operation = "UPDATE"
	Delete Operation = "DELETE"
)

// Entry is one manifest line.
type Entry struct {
	Path string
	Op   Operation
}

var blockedDirs = []string{
	".git", ".env", ".ssh", ".aws", ".gnupg", "id_rsa", "credentials", ".slopchop_apply_backup",
	".slopchop",
}

var protectedFiles = map[string]bool{
	"slopchop.yaml": true, "slopchop.toml": true,
	"Cargo.lock": true, "package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true, "go.sum": true,
}

var dotfileAllowlist = map[string]bool{
	".gitignore": true, ".github": true, ".slopchopignore": true,
}

const ignoreDirective = "slopchop:ignore"

var truncationSentinels = []string{
	"// ...", "/* ... */", "# ...", "// rest of", "// remaining",
	"// TODO: implement", "// implementation", "pass  #",
}

// ValidationFailure aggregates every validation error from one pass.
type ValidationFailure struct {
	Errors    []string
	Missing   []string
	AIMessage string
}

func (f *ValidationFailure) Error() string {
	return fmt.Sprintf("manifest validation failed: %s", strings.Join(f.Errors, "; "))
}

// Validate runs the full C10 pipeline given the parsed manifest and the
// path->content map extracted from FILE blocks. Returns nil on success.
func Validate(entries []Entry, contents map[string]string) error {
	var errs []string
	var missing []string

	contentPaths := make(map[string]bool, len(contents))
	for p := range contents {
		contentPaths[p] = true
	}

	for _, e := range entries {
		if err := ValidatePath(e.Path); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if protectedFiles[filepath.Base(e.Path)] {
			errs = append(errs, fmt.Sprintf("%s: refuses to overwrite protected file", e.Path))
			continue
		}

		switch e.Op {
		case New, Update:
			content, ok := contents[e.Path]
			if !ok {
				missing = append(missing, e.Path)
				continue
			}
			delete(contentPaths, e.Path)
			if err := ValidateContent(e.Path, content); err != nil {
				errs = append(errs, err.Error())
			}
		case Delete:
			if _, ok := contents[e.Path]; ok {
				errs = append(errs, fmt.Sprintf("%s: DELETE entry must not have a matching FILE block", e.Path))
			}
		}
	}

	for orphan := range contentPaths {
		errs = append(errs, fmt.Sprintf("%s: FILE block has no matching manifest entry", orphan))
	}

	if len(errs) == 0 && len(missing) == 0 {
		return nil
	}
	return &ValidationFailure{
		Errors:    errs,
		Missing:   missing,
		AIMessage: formatAIMessage(errs, missing),
	}
}

// ValidatePath rejects absolute paths, parent-directory components,
// blocked directories, and un-allowlisted dotfiles.
func ValidatePath(path string) error {
	if filepath.IsAbs(path) || isWindowsAbs(path) {
		return fmt.Errorf("%s: absolute paths are not allowed", path)
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(clean, "/")
	for _, part := range parts {
		if part == ".." {
			return fmt.Errorf("%s: parent-directory components are not allowed", path)
		}
	}
	for _, part := range parts {
		if dotfileAllowlist[part] {
			continue
		}
		for _, blocked := range blockedDirs {
			if strings.Contains(part, blocked) {
				return fmt.Errorf("%s: touches blocked path %q", path, blocked)
			}
		}
	}
	base := filepath.Base(clean)
	if strings.HasPrefix(base, ".") && !dotfileAllowlist[base] {
		if !strings.HasPrefix(clean, ".github/") && clean != ".github" {
			return fmt.Errorf("%s: hidden file not in the allowlist", path)
		}
	}
	if strings.HasPrefix(parts[0], ".") && !dotfileAllowlist[parts[0]] {
		return fmt.Errorf("%s: hidden file not in the allowlist", path)
	}
	return nil
}

func isWindowsAbs(path string) bool {
	if len(path) >= 2 && path[1] == ':' {
		return true
	}
	return strings.HasPrefix(path, `\\`)
}

// ValidateContent rejects empty files, markdown fences in non-Markdown
// files, and truncation sentinels (unless the line also carries
// slopchop:ignore).
func ValidateContent(path, content string) error {
	if content == "" {
		return fmt.Errorf("%s: file content is empty", path)
	}

	lines := strings.Split(content, "\n")
	isMarkdown := strings.HasSuffix(strings.ToLower(path), ".md")

	for i, line := range lines {
		if strings.Contains(line, ignoreDirective) {
			continue
		}
		if !isMarkdown && (strings.Contains(line, "```") || strings.Contains(line, "~~~")) {
			return fmt.Errorf("%s:%d: markdown fence found in a non-Markdown file", path, i+1)
		}
		for _, sentinel := range truncationSentinels {
			if strings.Contains(line, sentinel) {
				return fmt.Errorf("%s:%d: truncation sentinel %q found", path, i+1, sentinel)
			}
		}
	}
	return nil
}

func formatAIMessage(errs, missing []string) string {
	var b strings.Builder
	b.WriteString("Your payload was rejected:\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	for _, m := range missing {
		fmt.Fprintf(&b, "- missing FILE block for manifest entry %s\n", m)
	}
	return b.String()
}
