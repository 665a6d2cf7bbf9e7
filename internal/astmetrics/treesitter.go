// Package astmetrics computes nesting depth, cyclomatic count, cognitive
// complexity and arity over a parsed function body. It operates either on a
// tree-sitter node (Rust/Python/TypeScript) or directly on a go/ast node
// (Go), since Go is analysed with the standard library parser rather than
// tree-sitter.
package astmetrics

import sitter "github.com/smacker/go-tree-sitter"

// NodeKinds describes, for one language, which tree-sitter node kinds count
// as control-flow constructs, which introduce a new function scope, boolean
// operators, and which node holds a function's parameter list.
type NodeKinds struct {
	Control    map[string]bool
	Function   map[string]bool
	BooleanOps map[string]bool
	// BooleanOperators restricts a BooleanOps match to nodes whose "operator"
	// field text is in this set. Some grammars (Python's boolean_operator)
	// already have a kind dedicated to && /||, so this is left nil there;
	// grammars that fold all binary operators into one generic kind (Rust and
	// TypeScript's binary_expression) need it to avoid counting arithmetic
	// and comparison expressions as boolean operators.
	BooleanOperators map[string]bool
	ElseIfParents    map[string]bool // node kinds whose presence marks a clause as "else if" rather than a fresh nesting level
	ParamList        map[string]bool
}

// Metrics is the result of analysing a single function-like node.
type Metrics struct {
	NestingDepth int
	Cyclomatic   int
	Cognitive    int
	Arity        int
}

// Analyze walks a function body node and computes all four metrics. content
// is the full source buffer the tree was parsed from, needed to read a
// binary_expression's operator field text.
func Analyze(body *sitter.Node, k NodeKinds, content []byte) Metrics {
	m := Metrics{}
	m.NestingDepth = nestingDepth(body, k, 0)
	m.Cyclomatic = 1 + cyclomaticMatches(body, k, content)
	s := &scorer{kinds: k, content: content}
	s.visit(body, 0)
	m.Cognitive = s.score
	return m
}

// Arity counts the named children of a parameter-list node.
func Arity(paramList *sitter.Node) int {
	if paramList == nil {
		return 0
	}
	return int(paramList.NamedChildCount())
}

func nestingDepth(n *sitter.Node, k NodeKinds, depth int) int {
	max := depth
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		childDepth := depth
		if k.Control[child.Type()] {
			childDepth = depth + 1
		}
		if k.Function[child.Type()] {
			childDepth = 0
		}
		if d := nestingDepth(child, k, childDepth); d > max {
			max = d
		}
	}
	return max
}

func cyclomaticMatches(n *sitter.Node, k NodeKinds, content []byte) int {
	count := 0
	if k.Control[n.Type()] || (k.BooleanOps[n.Type()] && isBooleanOperator(n, k, content)) {
		count++
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		count += cyclomaticMatches(n.NamedChild(i), k, content)
	}
	return count
}

// isBooleanOperator reports whether a BooleanOps-kind node is actually a
// boolean operator, for grammars where BooleanOps names a generic binary
// expression kind shared with arithmetic and comparison operators.
func isBooleanOperator(n *sitter.Node, k NodeKinds, content []byte) bool {
	if len(k.BooleanOperators) == 0 {
		return true
	}
	op := n.ChildByFieldName("operator")
	if op == nil {
		return false
	}
	return k.BooleanOperators[string(content[op.StartByte():op.EndByte()])]
}

// scorer implements the SonarSource-style cognitive-complexity walk: every
// control-flow break adds 1 plus the current nesting level (except else-if,
// which adds a flat 1 without incrementing nesting), boolean operators add 1
// per run of the same operator, and nested function definitions reset
// nesting to 0.
type scorer struct {
	kinds   NodeKinds
	content []byte
	score   int
}

func (s *scorer) visit(n *sitter.Node, nesting int) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		kind := child.Type()

		switch {
		case s.kinds.Function[kind]:
			s.visit(child, 0)
			continue
		case s.kinds.Control[kind]:
			if s.isElseIf(child) {
				s.score++
				s.visit(child, nesting)
			} else {
				s.score += 1 + nesting
				s.visit(child, nesting+1)
			}
			continue
		case s.kinds.BooleanOps[kind] && isBooleanOperator(child, s.kinds, s.content):
			// a left operand continuing the same operator run is not scored again
			op := child.ChildByFieldName("operator")
			left := child.ChildByFieldName("left")
			var leftOp *sitter.Node
			if left != nil && left.Type() == kind {
				leftOp = left.ChildByFieldName("operator")
			}
			if op == nil || leftOp == nil || leftOp.Content(s.content) != op.Content(s.content) {
				s.score++
			}
		}
		s.visit(child, nesting)
	}
}

// isElseIf reports whether a control node is the "else if" arm of its
// parent rather than an independently-nested branch: flattening an
// else-if chain must not compound nesting-driven growth.
func (s *scorer) isElseIf(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	return s.kinds.ElseIfParents[parent.Type()]
}
