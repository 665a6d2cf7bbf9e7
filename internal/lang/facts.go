package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"slopchop/internal/astmetrics"
)

// FunctionFacts describes one function/method definition found in a file.
type FunctionFacts struct {
	Name      string
	StartLine int // 1-indexed
	astmetrics.Metrics
}

// BannedHit is one occurrence of a banned construct.
type BannedHit struct {
	Name string // the banned call/construct name
	Line int    // 1-indexed
}

// FileFacts is everything C5/C6 need from a single parsed file.
type FileFacts struct {
	Defs      []string // definition names (functions, types, classes, modules)
	Refs      []string // referenced identifiers (imports, bare call targets)
	Functions []FunctionFacts
	Banned    []BannedHit
	ParseOK   bool
}

// naming-relevant function node kinds reused across tree-sitter languages.
var defNodeKinds = map[Language]map[string]bool{
	Rust:       set("function_item", "struct_item", "enum_item", "trait_item", "mod_item"),
	Python:     set("function_definition", "class_definition"),
	TypeScript: set("function_declaration", "class_declaration", "interface_declaration", "method_definition"),
}

var refNodeKinds = map[Language]map[string]bool{
	Rust:       set("use_declaration", "call_expression"),
	Python:     set("import_statement", "import_from_statement", "call"),
	TypeScript: set("import_statement", "call_expression"),
}

// Analyze parses content with the appropriate adapter for l and extracts
// FileFacts. A parse failure is reported via ParseOK=false, not an error,
// matching C5 step 4 ("if parsing fails, return without structural
// violations").
func Analyze(l Language, content []byte) (FileFacts, error) {
	if l == Go {
		return analyzeGo(content)
	}
	return analyzeTreeSitter(l, content)
}

func analyzeTreeSitter(l Language, content []byte) (FileFacts, error) {
	p, ok := Parser(l)
	if !ok {
		return FileFacts{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, l)
	}
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return FileFacts{ParseOK: false}, nil
	}
	defer tree.Close()

	kinds, _ := Kinds(l)
	defKinds := defNodeKinds[l]
	refKinds := refNodeKinds[l]
	banned := make(map[string]bool)
	for _, b := range BannedCallNames(l) {
		banned[b] = true
	}

	facts := FileFacts{ParseOK: true}
	root := tree.RootNode()

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		kind := n.Type()

		if defKinds[kind] {
			if name := childIdentifier(n, content); name != "" {
				facts.Defs = append(facts.Defs, name)
			}
		}
		if refKinds[kind] {
			for _, ref := range extractRefs(l, n, content) {
				facts.Refs = append(facts.Refs, ref)
			}
		}
		if kinds.Function[kind] {
			name := childIdentifier(n, content)
			body := functionBody(n)
			m := astmetrics.Metrics{}
			if body != nil {
				m = astmetrics.Analyze(body, kinds, content)
			}
			m.Arity = astmetrics.Arity(findChildKind(n, kinds.ParamList))
			facts.Functions = append(facts.Functions, FunctionFacts{
				Name:      name,
				StartLine: int(n.StartPoint().Row) + 1,
				Metrics:   m,
			})
		}
		if kind == "call_expression" || kind == "call" {
			if name := calleeName(n, content); name != "" && banned[name] {
				facts.Banned = append(facts.Banned, BannedHit{Name: name, Line: int(n.StartPoint().Row) + 1})
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	return facts, nil
}

func childIdentifier(n *sitter.Node, content []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "identifier" || c.Type() == "type_identifier" || c.Type() == "property_identifier" {
			return string(content[c.StartByte():c.EndByte()])
		}
	}
	return ""
}

func functionBody(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "block", "statement_block", "function_body":
			return c
		}
	}
	return n
}

func findChildKind(n *sitter.Node, kinds map[string]bool) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if kinds[c.Type()] {
			return c
		}
	}
	return nil
}

func calleeName(n *sitter.Node, content []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	if fn.Type() == "field_expression" || fn.Type() == "member_expression" || fn.Type() == "attribute" {
		field := fn.ChildByFieldName("field")
		if field == nil {
			field = fn.ChildByFieldName("attribute")
		}
		if field == nil {
			field = fn.ChildByFieldName("property")
		}
		if field != nil {
			return string(content[field.StartByte():field.EndByte()])
		}
	}
	if fn.Type() == "identifier" {
		return string(content[fn.StartByte():fn.EndByte()])
	}
	return ""
}

func extractRefs(l Language, n *sitter.Node, content []byte) []string {
	var refs []string
	switch n.Type() {
	case "call_expression", "call":
		if name := calleeName(n, content); name != "" {
			refs = append(refs, name)
		}
	default:
		// import/use declarations: collect every identifier under the node.
		var walk func(c *sitter.Node)
		walk = func(c *sitter.Node) {
			if c.Type() == "identifier" {
				refs = append(refs, string(content[c.StartByte():c.EndByte()]))
			}
			for i := 0; i < int(c.NamedChildCount()); i++ {
				walk(c.NamedChild(i))
			}
		}
		walk(n)
	}
	return refs
}
