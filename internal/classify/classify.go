// Package classify partitions a discovered file path into a governance
// class without inspecting file content.
package classify

import (
	"path/filepath"
	"strings"
)

// Kind is the total classification of a file path.
type Kind int

const (
	SourceCode Kind = iota
	Config
	Asset
	Other
)

func (k Kind) String() string {
	switch k {
	case SourceCode:
		return "SourceCode"
	case Config:
		return "Config"
	case Asset:
		return "Asset"
	default:
		return "Other"
	}
}

var sourceExtensions = map[string]bool{
	".go": true, ".rs": true, ".py": true,
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

var configExtensions = map[string]bool{
	".yaml": true, ".yml": true, ".toml": true, ".json": true,
	".ini": true, ".cfg": true, ".env": true,
}

var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".woff": true, ".woff2": true, ".ttf": true, ".mp4": true,
	".css": true, ".html": true,
}

// minifiedMarkers are substrings in a base filename that mark it as a
// generated/bundled artifact, exempt from SourceCode governance regardless
// of extension.
var minifiedMarkers = []string{".min.", ".bundle.", "-lock.json", ".generated.", ".pb.go"}

// Classify is a pure function of path: extension table first, minified
// detection pre-empting it. No file content is read.
func Classify(path string) Kind {
	base := filepath.Base(path)
	lower := strings.ToLower(base)

	for _, marker := range minifiedMarkers {
		if strings.Contains(lower, marker) {
			return Other
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case sourceExtensions[ext]:
		return SourceCode
	case configExtensions[ext]:
		return Config
	case assetExtensions[ext]:
		return Asset
	default:
		return Other
	}
}

// IsGoverned reports whether a path participates in token/complexity/naming
// checks. Only SourceCode is governed.
func IsGoverned(path string) bool {
	return Classify(path) == SourceCode
}
