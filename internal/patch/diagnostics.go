package patch

import (
	"fmt"
	"strings"

	"slopchop/internal/diff"
)

func diagnoseAmbiguous(count int, positions []int, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patch failed: Ambiguous match. Found %d occurrences.\n\n", count)
	b.WriteString("Occurrences found at:\n")
	for i, pos := range positions {
		if i >= 3 {
			break
		}
		line := strings.Count(content[:pos], "\n") + 1
		end := pos + 40
		if end > len(content) {
			end = len(content)
		}
		snippet := content[pos:end]
		if idx := strings.IndexByte(snippet, '\n'); idx >= 0 {
			snippet = snippet[:idx]
		}
		fmt.Fprintf(&b, "%d. Line %d: %s...\n", i+1, line, strings.TrimSpace(snippet))
	}
	if count > 3 {
		b.WriteString("... and others.\n")
	}
	b.WriteString("\nNEXT: Add more context (LEFT_CTX / RIGHT_CTX) to make the patch unique.")
	return b.String()
}

func diagnoseZeroMatches(content, search string, instr Instruction) string {
	var b strings.Builder
	b.WriteString("Patch failed: Could not find exact match for the OLD block.\n")

	if candidate, ok := findClosestCandidate(content, search); ok {
		b.WriteString("\nDid you mean this region?\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
		b.WriteString(indentLines(candidate, "  "))
		b.WriteString("\n" + strings.Repeat("-", 40) + "\n")
		appendDiffSummary(&b, search, candidate)
	}

	appendMismatchDetails(&b, search)

	if instr.LeftCtx != "" && !strings.Contains(content, strings.TrimSpace(instr.LeftCtx)) {
		b.WriteString("\nLEFT_CTX was not found in the file.")
	}

	b.WriteString("\n\nNEXT: Regenerate the patch using the correct context, or send the full FILE.")
	return b.String()
}

func indentLines(block, prefix string) string {
	if block == "" {
		return ""
	}
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func appendDiffSummary(b *strings.Builder, expected, candidate string) {
	b.WriteString("\nDiff summary (expected vs found):\n")
	lines, truncated := diff.Summary(expected, candidate, 8)
	for _, l := range lines {
		fmt.Fprintf(b, "%s\n", l)
	}
	if truncated {
		b.WriteString("  ... (truncated)\n")
	}
}

func appendMismatchDetails(b *strings.Builder, search string) {
	lines := strings.Split(search, "\n")
	head := lines[0]
	tail := lines[len(lines)-1]
	b.WriteString("\nContext mismatch details:\n")
	fmt.Fprintf(b, "Expected start: %q\n", strings.TrimSpace(head))
	fmt.Fprintf(b, "Expected end:   %q\n", strings.TrimSpace(tail))
}

// findClosestCandidate probes for the 20-byte head and tail of search
// appearing in plausible proximity to each other, for a "did you mean?"
// suggestion when the full search string isn't found verbatim.
func findClosestCandidate(content, search string) (string, bool) {
	if len(search) < 40 {
		return "", false
	}
	head := search[:20]
	tail := search[len(search)-20:]

	headPositions := findAll(content, head)
	tailPositions := findAll(content, tail)

	for _, h := range headPositions {
		for _, t := range tailPositions {
			if t > h && isPlausibleMatch(h, t, len(search)) {
				return extractCandidate(content, h, t+len(tail)), true
			}
		}
	}
	return "", false
}

func isPlausibleMatch(headIdx, tailIdx, searchLen int) bool {
	expectedDist := searchLen - 40
	if expectedDist < 0 {
		expectedDist = 0
	}
	dist := tailIdx - (headIdx + 20) // gap between the end of head and the start of tail
	delta := dist - expectedDist
	if delta < 0 {
		delta = -delta
	}
	return delta < (expectedDist/2 + 1)
}

func extractCandidate(content string, start, end int) string {
	ctxStart := start - 50
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + 50
	if ctxEnd > len(content) {
		ctxEnd = len(content)
	}
	return content[ctxStart:ctxEnd]
}
