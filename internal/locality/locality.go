// Package locality implements the locality validator (C7): distance metric,
// structural exemptions, cycle detection, layer inference, and violation
// categorisation over the module graph built by package graph.
package locality

import (
	"path/filepath"
	"sort"
	"strings"

	"slopchop/internal/graph"
)

// Mode gates whether locality violations are reported and/or fail the run.
type Mode string

const (
	Off   Mode = "off"
	Warn  Mode = "warn"
	Error Mode = "error"
)

// Config is the locality validator's tuning.
type Config struct {
	MaxDistance int
	L1Threshold int
	Hubs        map[string]bool
	Mode        Mode
}

// ViolationKind categorises a failing edge, in the priority order they are
// checked.
type ViolationKind string

const (
	EncapsulationBreach ViolationKind = "EncapsulationBreach"
	MissingHub          ViolationKind = "MissingHub"
	UpwardDep           ViolationKind = "UpwardDep"
	SidewaysDep         ViolationKind = "SidewaysDep"
)

// Violation is one failing edge.
type Violation struct {
	From, To string
	Kind     ViolationKind
	Detail   string
}

// Report is C7's full output.
type Report struct {
	Violations []Violation
	Cycles     [][]string
	GodModules []string
	Passed     bool
}

var sourceRootNames = map[string]bool{
	"lib.rs": true, "main.rs": true, "main.go": true, "__init__.py": true, "index.ts": true, "index.js": true,
}

// Validate runs the full C7 pipeline. An empty Report with Passed=true is
// returned when mode is Off.
func Validate(g *graph.Graph, cfg Config) Report {
	if cfg.Mode == Off {
		return Report{Passed: true}
	}

	var violations []Violation
	inDegree := make(map[string]int)
	for _, node := range g.Nodes() {
		for range g.Dependents(node) {
			inDegree[node]++
		}
	}

	layers := inferLayers(g)

	for _, from := range g.Nodes() {
		for _, to := range g.Dependencies(from) {
			if exempt(from, to) {
				continue
			}
			dist := distance(from, to)
			if dist <= cfg.MaxDistance || cfg.Hubs[to] {
				continue
			}
			violations = append(violations, Violation{
				From: from, To: to,
				Kind:   categorize(from, to, inDegree[to], layers, cfg),
				Detail: "",
			})
		}
	}

	cycles := detectCycles(g)
	godModules := detectGodModules(violations)

	passed := cfg.Mode != Error || (len(violations) == 0 && len(cycles) == 0)

	return Report{
		Violations: violations,
		Cycles:     cycles,
		GodModules: godModules,
		Passed:     passed,
	}
}

// distance is the sum of upward and downward steps through the directory
// hierarchy, counted from the lowest common ancestor directory.
func distance(a, b string) int {
	da := strings.Split(filepath.Dir(a), string(filepath.Separator))
	db := strings.Split(filepath.Dir(b), string(filepath.Separator))

	common := 0
	for common < len(da) && common < len(db) && da[common] == db[common] {
		common++
	}
	return (len(da) - common) + (len(db) - common)
}

// exempt applies the structural exemptions, in order, before any distance
// rule fires.
func exempt(from, to string) bool {
	if sourceRootNames[filepath.Base(from)] || sourceRootNames[filepath.Base(to)] {
		return true
	}
	if isAggregator(to) && filepath.Dir(to) == filepath.Dir(filepath.Dir(from)) {
		return true // parent -> child re-export through an aggregator
	}
	if isAggregator(from) && filepath.Dir(from) == filepath.Dir(filepath.Dir(to)) {
		return true // child -> parent import of the aggregator
	}
	if topLevelModule(from) == topLevelModule(to) {
		return true // same top-level subtree
	}
	if isSourceRootFile(from) || isSourceRootFile(to) {
		return true // shared infrastructure directly under the source root
	}
	return false
}

func isAggregator(path string) bool {
	base := filepath.Base(path)
	return base == "mod.rs" || base == "__init__.py" || base == "index.ts" || base == "index.js" || base == "doc.go"
}

func topLevelModule(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return ""
}

func isSourceRootFile(path string) bool {
	return !strings.Contains(filepath.ToSlash(filepath.Dir(path)), "/")
}

func categorize(from, to string, inDegree int, layers map[string]int, cfg Config) ViolationKind {
	if !isAggregator(to) && filepath.Dir(to) != filepath.Dir(from) {
		return EncapsulationBreach
	}
	if inDegree >= 3 && !cfg.Hubs[to] {
		return MissingHub
	}
	if layers[from] < layers[to] {
		return UpwardDep
	}
	return SidewaysDep
}

func detectGodModules(violations []Violation) []string {
	outbound := make(map[string]int)
	for _, v := range violations {
		outbound[v.From]++
	}
	var mods []string
	for path, count := range outbound {
		if count >= 3 {
			mods = append(mods, path)
		}
	}
	sort.Strings(mods)
	return mods
}
