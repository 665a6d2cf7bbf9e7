// Package check implements the per-file checker (C5): parse, run queries,
// emit violations in the exact order the governance rules require.
package check

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"slopchop/internal/classify"
	"slopchop/internal/lang"
	"slopchop/internal/tokenize"
)

// Confidence is how provable a violation is from the AST alone.
type Confidence string

const (
	Info   Confidence = "Info"
	Medium Confidence = "Medium"
	High   Confidence = "High"
)

// Violation is an immutable record of one rule breach.
type Violation struct {
	Row        int
	RuleCode   string
	Message    string
	Confidence Confidence
	Reason     string
}

// FileReport is the per-file aggregate C5 produces.
type FileReport struct {
	Path            string
	TokenCount      int
	ComplexityScore int
	Violations      []Violation
}

// Rules is the subset of configuration C5 consults.
type Rules struct {
	MaxFileTokens          int
	MaxCognitiveComplexity int
	MaxNestingDepth        int
	MaxFunctionArgs        int
	MaxFunctionWords       int
	IgnoreNamingOn         []string
	IgnoreTokensOn         []string
	RequireSafetyComment   bool
	BanUnsafe              bool
}

const ignoreDirective = "slopchop:ignore"
const ignoreScanLines = 5

// File runs the C5 algorithm against a single file's content, in the exact
// order mandated: file-level ignore, token cap, classification gate, parse,
// naming, complexity, banned constructs, safety.
func File(path string, content []byte, rules Rules) FileReport {
	report := FileReport{Path: path}

	if fileIgnored(content) {
		return report
	}

	tokenCount := tokenize.Count(content)
	report.TokenCount = tokenCount
	if tokenCount > rules.MaxFileTokens && !matchesAny(path, rules.IgnoreTokensOn) {
		report.Violations = append(report.Violations, Violation{
			Row:        1,
			RuleCode:   "LAW OF ATOMICITY",
			Message:    fmt.Sprintf("file has %d tokens, exceeds max_file_tokens=%d", tokenCount, rules.MaxFileTokens),
			Confidence: High,
		})
	}

	if !classify.IsGoverned(path) {
		return report
	}

	l, ok := lang.FromExtension(filepath.Ext(path))
	if !ok {
		return report
	}

	facts, err := lang.Analyze(l, content)
	if err != nil || !facts.ParseOK {
		return report
	}

	ignoredLines := lineIgnores(content)

	if !matchesAny(path, rules.IgnoreNamingOn) {
		for _, fn := range facts.Functions {
			if ignoredLines[fn.StartLine] {
				continue
			}
			if words := lang.WordCount(fn.Name); words > rules.MaxFunctionWords {
				report.Violations = append(report.Violations, Violation{
					Row:        fn.StartLine,
					RuleCode:   "NAMING",
					Message:    fmt.Sprintf("function %q has %d words, exceeds max_function_words=%d", fn.Name, words, rules.MaxFunctionWords),
					Confidence: Medium,
				})
			}
		}
	}

	maxComplexity := 0
	for _, fn := range facts.Functions {
		if fn.Cognitive > maxComplexity {
			maxComplexity = fn.Cognitive
		}
		if ignoredLines[fn.StartLine] {
			continue
		}
		if fn.Cognitive > rules.MaxCognitiveComplexity {
			report.Violations = append(report.Violations, Violation{
				Row:        fn.StartLine,
				RuleCode:   "COMPLEXITY",
				Message:    fmt.Sprintf("function %q has cognitive complexity %d, exceeds max=%d", fn.Name, fn.Cognitive, rules.MaxCognitiveComplexity),
				Confidence: High,
			})
		}
		if fn.NestingDepth > rules.MaxNestingDepth {
			report.Violations = append(report.Violations, Violation{
				Row:        fn.StartLine,
				RuleCode:   "NESTING",
				Message:    fmt.Sprintf("function %q nests %d deep, exceeds max=%d", fn.Name, fn.NestingDepth, rules.MaxNestingDepth),
				Confidence: High,
			})
		}
		if fn.Arity > rules.MaxFunctionArgs {
			report.Violations = append(report.Violations, Violation{
				Row:        fn.StartLine,
				RuleCode:   "ARITY",
				Message:    fmt.Sprintf("function %q takes %d args, exceeds max=%d", fn.Name, fn.Arity, rules.MaxFunctionArgs),
				Confidence: High,
			})
		}
	}
	report.ComplexityScore = maxComplexity

	for _, b := range facts.Banned {
		if ignoredLines[b.Line] {
			continue
		}
		report.Violations = append(report.Violations, Violation{
			Row:        b.Line,
			RuleCode:   "LAW OF PARANOIA",
			Message:    fmt.Sprintf("banned construct %q in call position", b.Name),
			Confidence: High,
		})
	}

	if rules.RequireSafetyComment {
		report.Violations = append(report.Violations, safetyViolations(content, rules)...)
	}

	return report
}

func fileIgnored(content []byte) bool {
	lines := bytes.SplitN(content, []byte("\n"), ignoreScanLines+1)
	limit := ignoreScanLines
	if len(lines) < limit {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		if bytes.Contains(lines[i], []byte(ignoreDirective)) {
			return true
		}
	}
	return false
}

func lineIgnores(content []byte) map[int]bool {
	ignored := make(map[int]bool)
	for i, line := range bytes.Split(content, []byte("\n")) {
		if bytes.Contains(line, []byte(ignoreDirective)) {
			ignored[i+1] = true
		}
	}
	return ignored
}

func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// safetyViolations scans for a dangerous construct (Go's cgo `import "C"`
// or `//go:linkname`, Rust's `unsafe {`) lacking a preceding SAFETY comment.
func safetyViolations(content []byte, rules Rules) []Violation {
	var violations []Violation
	lines := bytes.Split(content, []byte("\n"))
	for i, line := range lines {
		text := string(line)
		isDangerous := strings.Contains(text, "unsafe {") ||
			strings.Contains(text, `import "C"`) ||
			strings.Contains(text, "//go:linkname")
		if !isDangerous {
			continue
		}
		if rules.BanUnsafe {
			violations = append(violations, Violation{
				Row:        i + 1,
				RuleCode:   "SAFETY",
				Message:    "unsafe/cgo construct is banned by configuration",
				Confidence: High,
			})
			continue
		}
		hasPrecedingComment := i > 0 && strings.Contains(string(lines[i-1]), "SAFETY:")
		if !hasPrecedingComment {
			violations = append(violations, Violation{
				Row:        i + 1,
				RuleCode:   "SAFETY",
				Message:    "dangerous construct requires a preceding SAFETY: comment",
				Confidence: Medium,
			})
		}
	}
	return violations
}
