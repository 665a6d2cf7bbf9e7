package lang

import (
	"go/ast"
	"go/parser"
	"go/token"

	"slopchop/internal/astmetrics"
)

func analyzeGo(content []byte) (FileFacts, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", content, 0)
	if err != nil {
		return FileFacts{ParseOK: false}, nil
	}

	facts := FileFacts{ParseOK: true}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			facts.Defs = append(facts.Defs, d.Name.Name)
			facts.Functions = append(facts.Functions, FunctionFacts{
				Name:      d.Name.Name,
				StartLine: fset.Position(d.Pos()).Line,
				Metrics:   astmetrics.AnalyzeGo(d),
			})
			if d.Body != nil {
				facts.Banned = append(facts.Banned, findGoPanics(d.Body, fset)...)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					facts.Defs = append(facts.Defs, ts.Name.Name)
				}
				if is, ok := spec.(*ast.ImportSpec); ok {
					facts.Refs = append(facts.Refs, is.Path.Value)
				}
			}
		}
	}

	return facts, nil
}

func findGoPanics(n ast.Node, fset *token.FileSet) []BannedHit {
	var hits []BannedHit
	ast.Inspect(n, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}
		if ident, ok := call.Fun.(*ast.Ident); ok && ident.Name == "panic" {
			hits = append(hits, BannedHit{Name: "panic", Line: fset.Position(call.Pos()).Line})
		}
		return true
	})
	return hits
}
