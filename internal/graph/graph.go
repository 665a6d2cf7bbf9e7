// Package graph builds the module dependency graph (C6) from per-file
// definitions and references, and computes PageRank over it.
package graph

import (
	"sort"
	"strings"
)

// Graph is a weighted directed graph of files: nodes are paths, edges are
// reference-count weighted.
type Graph struct {
	nodes map[string]bool
	edges map[string]map[string]int // from -> to -> weight
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		edges: make(map[string]map[string]int),
	}
}

// FileSymbols is one file's extracted definitions and references, the input
// to graph construction.
type FileSymbols struct {
	Path string
	Defs []string
	Refs []string
}

// Build constructs the graph per spec: resolve each symbol by its last
// name-component, and for every (definer, referrer) pair with definer !=
// referrer, add a referrer -> definer edge weighted by reference count.
func Build(files []FileSymbols) *Graph {
	g := New()
	defsOf := make(map[string][]string) // last-component -> defining files
	for _, f := range files {
		g.nodes[f.Path] = true
		for _, d := range f.Defs {
			key := lastComponent(d)
			defsOf[key] = append(defsOf[key], f.Path)
		}
	}

	for _, f := range files {
		for _, r := range f.Refs {
			key := lastComponent(r)
			for _, definer := range defsOf[key] {
				if definer == f.Path {
					continue // no self-loops
				}
				g.addEdge(f.Path, definer)
			}
		}
	}
	return g
}

func lastComponent(symbol string) string {
	symbol = strings.Trim(symbol, `"`)
	if i := strings.LastIndex(symbol, "::"); i >= 0 {
		return symbol[i+2:]
	}
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		return symbol[i+1:]
	}
	if i := strings.LastIndex(symbol, "/"); i >= 0 {
		return symbol[i+1:]
	}
	return symbol
}

func (g *Graph) addEdge(from, to string) {
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]int)
	}
	g.edges[from][to]++
}

// Nodes returns every file path in the graph, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Neighbours returns every file with an edge to or from path, sorted.
func (g *Graph) Neighbours(path string) []string {
	seen := make(map[string]bool)
	for to := range g.edges[path] {
		seen[to] = true
	}
	for from, tos := range g.edges {
		if tos[path] > 0 {
			seen[from] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Dependents returns files with an edge pointing to path (files that
// reference path's symbols), sorted.
func (g *Graph) Dependents(path string) []string {
	var out []string
	for from, tos := range g.edges {
		if tos[path] > 0 {
			out = append(out, from)
		}
	}
	sort.Strings(out)
	return out
}

// Dependencies returns files path has an edge to, sorted.
func (g *Graph) Dependencies(path string) []string {
	out := make([]string, 0, len(g.edges[path]))
	for to := range g.edges[path] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// EdgeWeight returns the reference-count weight of the from->to edge.
func (g *Graph) EdgeWeight(from, to string) int {
	return g.edges[from][to]
}

// RankedPair is one file and its PageRank score.
type RankedPair struct {
	Path  string
	Score float64
}

// RankedFiles returns PageRank-scored files sorted by score descending.
func (g *Graph) RankedFiles(anchor string) []RankedPair {
	scores := PageRank(g, anchor)
	out := make([]RankedPair, 0, len(scores))
	for path, score := range scores {
		out = append(out, RankedPair{Path: path, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path // deterministic tiebreak
	})
	return out
}
