// Package lang is the language adapter (C1): a closed table mapping file
// extension to a parser and per-language node-kind tables (control
// constructs, function scopes, boolean operators, parameter lists,
// definitions, references, banned calls). There are no query strings or
// query kinds; all facts come from one walk over the parsed tree. No logic
// outside this package consumes language identity directly.
package lang

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"slopchop/internal/astmetrics"
)

// Language identifies a supported source family.
type Language string

const (
	Go         Language = "go"
	Rust       Language = "rust"
	Python     Language = "python"
	TypeScript Language = "typescript"
)

var extensionTable = map[string]Language{
	".go":  Go,
	".rs":  Rust,
	".py":  Python,
	".ts":  TypeScript,
	".tsx": TypeScript,
	".js":  TypeScript,
	".jsx": TypeScript,
}

// FromExtension maps a file extension (with leading dot) to a Language.
func FromExtension(ext string) (Language, bool) {
	l, ok := extensionTable[strings.ToLower(ext)]
	return l, ok
}

// SkeletonReplacement is the textual body substituted when redacting a
// function/type body for a skeleton view.
func SkeletonReplacement(l Language) string {
	if l == Python {
		return "..."
	}
	return "{ ... }"
}

// sitterGrammar returns the tree-sitter grammar for languages parsed with
// tree-sitter. Go is parsed with go/parser instead and has no entry here.
func sitterGrammar(l Language) (*sitter.Language, bool) {
	switch l {
	case Rust:
		return rust.GetLanguage(), true
	case Python:
		return python.GetLanguage(), true
	case TypeScript:
		return typescript.GetLanguage(), true
	default:
		return nil, false
	}
}

// nodeKinds is the per-language structural table driving C4's metrics and
// C1's Banned/Naming/Defs/Imports queries for tree-sitter-backed languages.
var nodeKinds = map[Language]astmetrics.NodeKinds{
	Rust: {
		Control: set("if_expression", "match_expression", "for_expression",
			"while_expression", "loop_expression"),
		Function:         set("function_item", "closure_expression"),
		BooleanOps:       set("binary_expression"),
		BooleanOperators: set("&&", "||"),
		ElseIfParents:    set("else_clause"),
		ParamList:        set("parameters"),
	},
	Python: {
		Control: set("if_statement", "for_statement", "while_statement",
			"try_statement", "with_statement"),
		Function:      set("function_definition", "lambda"),
		BooleanOps:    set("boolean_operator"),
		ElseIfParents: set("elif_clause"),
		ParamList:     set("parameters"),
	},
	TypeScript: {
		Control: set("if_statement", "for_statement", "for_in_statement",
			"while_statement", "do_statement", "try_statement", "switch_statement"),
		Function: set("function_declaration", "function", "arrow_function",
			"method_definition"),
		BooleanOps:       set("binary_expression"),
		BooleanOperators: set("&&", "||", "??"),
		ElseIfParents:    set("else_clause"),
		ParamList:        set("formal_parameters"),
	},
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// bannedCalls is the language-specific panic-prone construct table for
// C5's step 7 ("LAW OF PARANOIA").
var bannedCalls = map[Language][]string{
	Rust:       {"unwrap", "expect"},
	Go:         {"panic"},
	Python:     {}, // no banned constructs are detected for Python
	TypeScript: {}, // no banned constructs are detected for TypeScript
}

// Parser returns a fresh tree-sitter parser configured for l, or false if l
// is parsed by a non-tree-sitter route (Go).
func Parser(l Language) (*sitter.Parser, bool) {
	g, ok := sitterGrammar(l)
	if !ok {
		return nil, false
	}
	p := sitter.NewParser()
	p.SetLanguage(g)
	return p, true
}

// Kinds returns the node-kind table for a tree-sitter-backed language.
func Kinds(l Language) (astmetrics.NodeKinds, bool) {
	k, ok := nodeKinds[l]
	return k, ok
}

// BannedCallNames returns the method/function names that are banned in
// call position for l.
func BannedCallNames(l Language) []string {
	return bannedCalls[l]
}

// ErrUnsupportedLanguage is returned by any operation given a Language this
// adapter does not know.
var ErrUnsupportedLanguage = fmt.Errorf("unsupported language")
