package astmetrics

import "go/ast"

// AnalyzeGo computes the same four metrics as Analyze, but over a go/ast
// function body, since Go source is parsed with go/parser rather than
// tree-sitter.
func AnalyzeGo(fn *ast.FuncDecl) Metrics {
	m := Metrics{}
	if fn.Body == nil {
		return m
	}
	m.NestingDepth = goNestingDepth(fn.Body, 0)
	m.Cyclomatic = 1 + goCyclomaticMatches(fn.Body)
	s := &goScorer{}
	s.visitStmt(fn.Body, 0)
	m.Cognitive = s.score
	if fn.Type.Params != nil {
		for _, f := range fn.Type.Params.List {
			if len(f.Names) == 0 {
				m.Arity++
			} else {
				m.Arity += len(f.Names)
			}
		}
	}
	return m
}

func isGoControl(n ast.Node) bool {
	switch n.(type) {
	case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.SwitchStmt,
		*ast.TypeSwitchStmt, *ast.SelectStmt, *ast.CommClause, *ast.CaseClause:
		return true
	}
	return false
}

func goNestingDepth(n ast.Node, depth int) int {
	max := depth
	ast.Inspect(n, func(node ast.Node) bool {
		if node == nil || node == n {
			return true
		}
		if _, isFunc := node.(*ast.FuncLit); isFunc {
			if d := goNestingDepth(node, 0); d > max {
				max = d
			}
			return false
		}
		if isGoControl(node) {
			if d := goNestingDepth(node, depth+1); d > max {
				max = d
			}
			return false
		}
		return true
	})
	return max
}

func goCyclomaticMatches(n ast.Node) int {
	count := 0
	ast.Inspect(n, func(node ast.Node) bool {
		switch v := node.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.CaseClause, *ast.CommClause:
			count++
		case *ast.BinaryExpr:
			if v.Op.String() == "&&" || v.Op.String() == "||" {
				count++
			}
		}
		return true
	})
	return count
}

type goScorer struct {
	score int
}

func (s *goScorer) visitStmt(n ast.Node, nesting int) {
	switch v := n.(type) {
	case *ast.FuncLit:
		s.visitStmt(v.Body, 0)
		return
	case *ast.IfStmt:
		s.score += 1 + nesting
		for {
			if v.Init != nil {
				s.visitStmt(v.Init, nesting)
			}
			s.visitStmt(v.Cond, nesting)
			s.visitStmt(v.Body, nesting+1)
			elseIf, ok := v.Else.(*ast.IfStmt)
			if !ok {
				break
			}
			// else-if: flat +1, nesting does not increase further
			s.score++
			v = elseIf
		}
		if v.Else != nil {
			s.visitStmt(v.Else, nesting+1)
		}
		return
	case *ast.ForStmt:
		s.score += 1 + nesting
		s.visitStmt(v.Body, nesting+1)
		return
	case *ast.RangeStmt:
		s.score += 1 + nesting
		s.visitStmt(v.Body, nesting+1)
		return
	case *ast.SwitchStmt:
		s.score += 1 + nesting
		s.visitStmt(v.Body, nesting+1)
		return
	case *ast.TypeSwitchStmt:
		s.score += 1 + nesting
		s.visitStmt(v.Body, nesting+1)
		return
	case *ast.SelectStmt:
		s.score += 1 + nesting
		s.visitStmt(v.Body, nesting+1)
		return
	case *ast.BinaryExpr:
		if v.Op.String() == "&&" || v.Op.String() == "||" {
			// a run of the same operator (a && b && c) counts once
			if x, ok := v.X.(*ast.BinaryExpr); !ok || x.Op != v.Op {
				s.score++
			}
		}
		s.visitStmt(v.X, nesting)
		s.visitStmt(v.Y, nesting)
		return
	}

	// Generic descent for block/other statement containers.
	switch v := n.(type) {
	case *ast.BlockStmt:
		for _, stmt := range v.List {
			s.visitStmt(stmt, nesting)
		}
	case *ast.CaseClause:
		for _, stmt := range v.Body {
			s.visitStmt(stmt, nesting)
		}
	case *ast.CommClause:
		for _, stmt := range v.Body {
			s.visitStmt(stmt, nesting)
		}
	case *ast.ExprStmt:
		s.visitStmt(v.X, nesting)
	case *ast.AssignStmt:
		for _, rhs := range v.Rhs {
			s.visitStmt(rhs, nesting)
		}
	case *ast.ReturnStmt:
		for _, r := range v.Results {
			s.visitStmt(r, nesting)
		}
	case *ast.CallExpr:
		for _, a := range v.Args {
			s.visitStmt(a, nesting)
		}
	}
}
