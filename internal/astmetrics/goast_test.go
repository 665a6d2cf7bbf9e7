package astmetrics

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

func parseFunc(t *testing.T, src string) *ast.FuncDecl {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", "package p\n"+src, 0)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return fn
		}
	}
	t.Fatal("no function declaration found")
	return nil
}

func TestAnalyzeGoArity(t *testing.T) {
	fn := parseFunc(t, `func f(a, b int, c string) {}`)
	m := AnalyzeGo(fn)
	if m.Arity != 3 {
		t.Fatalf("arity = %d, want 3", m.Arity)
	}
}

func TestAnalyzeGoElseIfDoesNotCompoundNesting(t *testing.T) {
	flat := parseFunc(t, `
func f(x int) {
	if x == 1 {
	} else if x == 2 {
	} else if x == 3 {
	}
}`)
	nested := parseFunc(t, `
func f(x int) {
	if x == 1 {
		if x == 2 {
			if x == 3 {
			}
		}
	}
}`)

	flatScore := AnalyzeGo(flat).Cognitive
	nestedScore := AnalyzeGo(nested).Cognitive

	if flatScore >= nestedScore {
		t.Fatalf("else-if chain (%d) should score lower than equivalent nested ifs (%d)", flatScore, nestedScore)
	}
	// Three flat branches contribute exactly 1 each under flattening.
	if flatScore != 3 {
		t.Fatalf("flat else-if score = %d, want 3", flatScore)
	}
}

func TestAnalyzeGoNestingDepthResetsInClosures(t *testing.T) {
	fn := parseFunc(t, `
func f() {
	if true {
		func() {
			if true {
			}
		}()
	}
}`)
	m := AnalyzeGo(fn)
	if m.NestingDepth != 1 {
		t.Fatalf("nesting depth = %d, want 1 (closure resets to its own scope)", m.NestingDepth)
	}
}

func TestAnalyzeGoCyclomaticBaseline(t *testing.T) {
	fn := parseFunc(t, `func f() {}`)
	m := AnalyzeGo(fn)
	if m.Cyclomatic != 1 {
		t.Fatalf("cyclomatic = %d, want 1 for a branchless function", m.Cyclomatic)
	}
}
