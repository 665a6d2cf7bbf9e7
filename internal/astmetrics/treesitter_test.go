package astmetrics

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// rustKinds mirrors internal/lang's Rust entry closely enough to exercise
// BooleanOps/BooleanOperators filtering without importing internal/lang
// (which itself imports this package).
var rustKinds = NodeKinds{
	Control:          map[string]bool{"if_expression": true, "while_expression": true},
	Function:         map[string]bool{"function_item": true, "closure_expression": true},
	BooleanOps:       map[string]bool{"binary_expression": true},
	BooleanOperators: map[string]bool{"&&": true, "||": true},
	ElseIfParents:    map[string]bool{"else_clause": true},
	ParamList:        map[string]bool{"parameters": true},
}

func parseRustFuncBody(t *testing.T, src string) (*sitter.Node, []byte) {
	t.Helper()
	content := []byte("fn f() {\n" + src + "\n}\n")
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	root := tree.RootNode()

	var fn *sitter.Node
	var find func(n *sitter.Node)
	find = func(n *sitter.Node) {
		if fn != nil {
			return
		}
		if n.Type() == "function_item" {
			fn = n
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			find(n.NamedChild(i))
		}
	}
	find(root)
	if fn == nil {
		t.Fatal("no function_item found")
	}
	for i := 0; i < int(fn.ChildCount()); i++ {
		if fn.Child(i).Type() == "block" {
			return fn.Child(i), content
		}
	}
	t.Fatal("function has no block body")
	return nil, nil
}

func TestAnalyzeRustArithmeticDoesNotInflateComplexity(t *testing.T) {
	body, content := parseRustFuncBody(t, `let x = a + b * c - d / e;`)
	m := Analyze(body, rustKinds, content)
	if m.Cyclomatic != 1 {
		t.Fatalf("cyclomatic = %d, want 1 (arithmetic has no branches)", m.Cyclomatic)
	}
	if m.Cognitive != 0 {
		t.Fatalf("cognitive = %d, want 0 (arithmetic is not a boolean operator)", m.Cognitive)
	}
}

func TestAnalyzeRustComparisonDoesNotInflateComplexity(t *testing.T) {
	body, content := parseRustFuncBody(t, `let ok = i < n;`)
	m := Analyze(body, rustKinds, content)
	if m.Cognitive != 0 {
		t.Fatalf("cognitive = %d, want 0 (comparison is not a boolean operator)", m.Cognitive)
	}
}

func TestAnalyzeRustBooleanChainIsCounted(t *testing.T) {
	body, content := parseRustFuncBody(t, `let ok = a && b || c;`)
	m := Analyze(body, rustKinds, content)
	if m.Cognitive < 2 {
		t.Fatalf("cognitive = %d, want at least 2 for a two-operator boolean chain", m.Cognitive)
	}
}
