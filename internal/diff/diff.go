// Package diff renders line-level diffs for patch diagnostics, built on
// sergi/go-diff's diffmatchpatch engine rather than a hand-rolled LCS.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType is the classification of one rendered diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is a single line in a rendered Hunk.
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk is a contiguous group of changed lines plus surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Engine computes line-level diffs via diffmatchpatch.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine builds an Engine with timeouts disabled, favoring accuracy over
// bounded latency — patch diagnostics run on small in-memory text blocks.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// DefaultEngine is shared by the package-level convenience functions.
var DefaultEngine = NewEngine()

// ComputeHunks diffs old and new line-by-line and groups the result into
// Hunks with contextLines of unchanged context around each change.
func (e *Engine) ComputeHunks(old, new string, contextLines int) []Hunk {
	a, b, lineArray := e.dmp.DiffLinesToChars(old, new)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	ops := e.diffsToOperations(diffs)
	return e.groupIntoHunks(ops, contextLines)
}

// ComputeHunks diffs via the default engine.
func ComputeHunks(old, new string, contextLines int) []Hunk {
	return DefaultEngine.ComputeHunks(old, new, contextLines)
}

// Summary renders a flat, prefixed line-level diff ("  " context, "- "
// removed, "+ " added) between two text blocks, capped at maxLines
// rendered lines. The bool reports whether output was cut short.
func Summary(old, new string, maxLines int) ([]string, bool) {
	hunks := ComputeHunks(old, new, 3)
	var lines []string
	for _, h := range hunks {
		for _, l := range h.Lines {
			prefix := "  "
			switch l.Type {
			case LineAdded:
				prefix = "+ "
			case LineRemoved:
				prefix = "- "
			}
			lines = append(lines, prefix+l.Content)
		}
	}
	if len(lines) > maxLines {
		return lines[:maxLines], true
	}
	return lines, false
}

type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func (e *Engine) diffsToOperations(diffs []diffmatchpatch.Diff) []operation {
	operations := make([]operation, 0)
	oldLine := 0
	newLine := 0

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				operations = append(operations, operation{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				operations = append(operations, operation{LineRemoved, oldLine, -1, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				operations = append(operations, operation{LineAdded, -1, newLine, line})
				newLine++
			}
		}
	}

	return operations
}

func (e *Engine) groupIntoHunks(ops []operation, contextLines int) []Hunk {
	if len(ops) == 0 {
		return nil
	}

	var hunks []Hunk
	var current *Hunk
	lastChangeIdx := -1

	for i, op := range ops {
		isChange := op.typ != LineContext

		if isChange {
			if current == nil {
				current = &Hunk{}
				start := i - contextLines
				if start < 0 {
					start = 0
				}
				for j := start; j < i; j++ {
					if ops[j].typ == LineContext {
						current.Lines = append(current.Lines, Line{ops[j].oldLine + 1, ops[j].content, LineContext})
					}
				}
				if start < len(ops) {
					current.OldStart = ops[start].oldLine + 1
					current.NewStart = ops[start].newLine + 1
					if ops[start].oldLine < 0 {
						current.OldStart = 0
					}
					if ops[start].newLine < 0 {
						current.NewStart = 0
					}
				}
			}
			lastChangeIdx = i
		}

		if current != nil {
			lineNum := op.oldLine + 1
			if op.typ == LineAdded {
				lineNum = op.newLine + 1
			}
			current.Lines = append(current.Lines, Line{lineNum, op.content, op.typ})

			if op.typ == LineContext && i-lastChangeIdx > contextLines {
				trimTo := len(current.Lines) - (i - lastChangeIdx - contextLines)
				if trimTo > 0 && trimTo < len(current.Lines) {
					current.Lines = current.Lines[:trimTo]
				}
				e.computeHunkCounts(current)
				hunks = append(hunks, *current)
				current = nil
			}
		}
	}

	if current != nil && len(current.Lines) > 0 {
		e.computeHunkCounts(current)
		hunks = append(hunks, *current)
	}

	return hunks
}

func (e *Engine) computeHunkCounts(hunk *Hunk) {
	for _, line := range hunk.Lines {
		if line.Type == LineRemoved || line.Type == LineContext {
			hunk.OldCount++
		}
		if line.Type == LineAdded || line.Type == LineContext {
			hunk.NewCount++
		}
	}
}
