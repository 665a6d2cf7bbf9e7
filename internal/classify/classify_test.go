package classify

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"internal/check/check.go", SourceCode},
		{"src/lib.rs", SourceCode},
		{"slopchop.yaml", Config},
		{"assets/logo.svg", Asset},
		{"README.md", Other},
		{"dist/app.min.js", Other},
		{"vendor/bundle.bundle.js", Other},
	}
	for _, c := range cases {
		if got := Classify(c.path); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestIsGoverned(t *testing.T) {
	if !IsGoverned("a.go") {
		t.Fatal("expected .go to be governed")
	}
	if IsGoverned("app.min.js") {
		t.Fatal("minified artifact must not be governed")
	}
	if IsGoverned("config.yaml") {
		t.Fatal("config files are not governed")
	}
}
