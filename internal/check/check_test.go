package check

import "testing"

func defaultRules() Rules {
	return Rules{
		MaxFileTokens:          1000,
		MaxCognitiveComplexity: 10,
		MaxNestingDepth:        4,
		MaxFunctionArgs:        5,
		MaxFunctionWords:       6,
	}
}

func TestFileTokenCapBoundary(t *testing.T) {
	rules := defaultRules()
	rules.MaxFileTokens = 3

	atBoundary := []byte("a b c")
	overBoundary := []byte("a b c d")

	if r := File("f.txt", atBoundary, rules); len(r.Violations) != 0 {
		t.Fatalf("exactly at cap should pass, got %+v", r.Violations)
	}
	if r := File("f.txt", overBoundary, rules); len(r.Violations) == 0 {
		t.Fatal("one token over cap should fail")
	}
}

func TestFileIgnoreDirectiveSuppressesEverything(t *testing.T) {
	rules := defaultRules()
	rules.MaxFileTokens = 1
	content := []byte("// slopchop:ignore\npackage p\nfunc f() { panic(\"x\") }\n")
	r := File("f.go", content, rules)
	if len(r.Violations) != 0 {
		t.Fatalf("file-level ignore should suppress all violations, got %+v", r.Violations)
	}
}

func TestBannedPanicDetected(t *testing.T) {
	rules := defaultRules()
	content := []byte("package p\n\nfunc f() {\n\tpanic(\"boom\")\n}\n")
	r := File("f.go", content, rules)
	found := false
	for _, v := range r.Violations {
		if v.RuleCode == "LAW OF PARANOIA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a LAW OF PARANOIA violation, got %+v", r.Violations)
	}
}

func TestLineIgnoreSuppressesThatLine(t *testing.T) {
	rules := defaultRules()
	content := []byte("package p\n\nfunc f() {\n\tpanic(\"boom\") // slopchop:ignore\n}\n")
	r := File("f.go", content, rules)
	for _, v := range r.Violations {
		if v.RuleCode == "LAW OF PARANOIA" {
			t.Fatalf("line-ignored panic should not be reported, got %+v", v)
		}
	}
}

func TestNonGovernedFileSkipsStructuralChecks(t *testing.T) {
	rules := defaultRules()
	rules.MaxFileTokens = 1
	r := File("README.md", []byte("word word word"), rules)
	// The token cap runs before classification, so it is the only violation.
	if len(r.Violations) != 1 || r.Violations[0].RuleCode != "LAW OF ATOMICITY" {
		t.Fatalf("non-governed files should receive only the token-cap violation, got %+v", r.Violations)
	}
}
