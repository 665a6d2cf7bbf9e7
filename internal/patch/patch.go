// Package patch implements the surgical patch engine (C11): context-anchored
// LEFT_CTX/OLD/RIGHT_CTX/NEW instructions verified against a BASE_SHA256,
// with ambiguous-match and zero-match diagnostics.
package patch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Format distinguishes the canonical V1 context-anchored format from the
// deprecated V0 SEARCH/REPLACE format.
type Format int

const (
	V1 Format = iota
	V0
)

// ErrHashMismatch is returned when BASE_SHA256 disagrees with the current
// content.
var ErrHashMismatch = errors.New("patch: base sha256 verification failed")

// ErrAmbiguousMatch is returned when an instruction's search string matches
// more times than MaxMatches allows.
var ErrAmbiguousMatch = errors.New("patch: ambiguous match")

// ErrZeroMatches is returned when an instruction's search string is not
// found anywhere in the content.
var ErrZeroMatches = errors.New("patch: zero matches")

// Instruction is one LEFT_CTX/OLD/RIGHT_CTX/NEW group (or, for V0, a bare
// SEARCH/REPLACE pair with empty contexts).
type Instruction struct {
	LeftCtx    string
	Old        string
	RightCtx   string
	New        string
	MaxMatches int
}

func (i Instruction) search() string  { return i.LeftCtx + i.Old + i.RightCtx }
func (i Instruction) replace() string { return i.LeftCtx + i.New + i.RightCtx }

// Patch is a fully parsed PATCH block.
type Patch struct {
	Format       Format
	BaseSHA256   string
	Instructions []Instruction
}

// Apply verifies BASE_SHA256 against original, then applies every
// instruction in order, returning the resulting content.
func Apply(original string, p Patch) (string, error) {
	if p.Format == V1 && p.BaseSHA256 == "" {
		return "", fmt.Errorf("patch: V1 patches require BASE_SHA256")
	}
	if p.BaseSHA256 != "" {
		if err := verifyHash(original, p.BaseSHA256); err != nil {
			return "", err
		}
	}

	current := original
	for _, instr := range p.Instructions {
		next, err := applyInstruction(current, instr)
		if err != nil {
			return "", err
		}
		current = next
	}
	return current, nil
}

func verifyHash(content, expected string) error {
	sum := sha256.Sum256([]byte(content))
	actual := hex.EncodeToString(sum[:])
	if actual != expected {
		return fmt.Errorf("%w\nExpected: %s\nActual:   %s\n\nNEXT: The file has changed since this patch was generated. Regenerate the patch from the current file.", ErrHashMismatch, expected, actual)
	}
	return nil
}

func applyInstruction(content string, instr Instruction) (string, error) {
	eol := detectEOL(content)
	search := normalizeNewlines(instr.search(), eol)
	replace := normalizeNewlines(instr.replace(), eol)

	maxMatches := instr.MaxMatches
	if maxMatches <= 0 {
		maxMatches = 1
	}

	positions := findAll(content, search)
	if len(positions) == 1 {
		return splice(content, positions[0], search, replace), nil
	}
	if len(positions) > maxMatches {
		return "", fmt.Errorf("%w\n%s", ErrAmbiguousMatch, diagnoseAmbiguous(len(positions), positions, content))
	}
	if len(positions) > 0 {
		// Within MaxMatches but not exactly one: apply at every matched site.
		return spliceAll(content, positions, search, replace), nil
	}

	trimmedSearch := strings.TrimSuffix(search, eol)
	if trimmedSearch == search {
		return "", fmt.Errorf("%w\n%s", ErrZeroMatches, diagnoseZeroMatches(content, search, instr))
	}
	trimmedPositions := findAll(content, trimmedSearch)
	trimmedReplace := strings.TrimSuffix(replace, eol)
	switch {
	case len(trimmedPositions) == 0:
		return "", fmt.Errorf("%w\n%s", ErrZeroMatches, diagnoseZeroMatches(content, search, instr))
	case len(trimmedPositions) == 1:
		return splice(content, trimmedPositions[0], trimmedSearch, trimmedReplace), nil
	case len(trimmedPositions) > maxMatches:
		return "", fmt.Errorf("%w\n%s", ErrAmbiguousMatch, diagnoseAmbiguous(len(trimmedPositions), trimmedPositions, content))
	default:
		return spliceAll(content, trimmedPositions, trimmedSearch, trimmedReplace), nil
	}
}

func findAll(content, search string) []int {
	if search == "" {
		return nil
	}
	var positions []int
	from := 0
	for {
		idx := strings.Index(content[from:], search)
		if idx < 0 {
			break
		}
		positions = append(positions, from+idx)
		from += idx + len(search)
	}
	return positions
}

func splice(content string, start int, search, replace string) string {
	end := start + len(search)
	var b strings.Builder
	b.Grow(len(content) - len(search) + len(replace))
	b.WriteString(content[:start])
	b.WriteString(replace)
	b.WriteString(content[end:])
	return b.String()
}

func spliceAll(content string, positions []int, search, replace string) string {
	var b strings.Builder
	last := 0
	for _, pos := range positions {
		b.WriteString(content[last:pos])
		b.WriteString(replace)
		last = pos + len(search)
	}
	b.WriteString(content[last:])
	return b.String()
}

func detectEOL(content string) string {
	if strings.Contains(content, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

func normalizeNewlines(s, eol string) string {
	normalized := strings.ReplaceAll(s, "\r\n", "\n")
	if eol == "\n" {
		return normalized
	}
	return strings.ReplaceAll(normalized, "\n", eol)
}
