package locality

import "slopchop/internal/graph"

// inferLayers iteratively assigns layer 0 to nodes with no outgoing edges
// among the already-assigned set, then layer 1 to those whose outgoing
// edges all terminate in layer 0, and so on. Cycle participants that never
// become assignable receive one layer above the last assigned layer.
func inferLayers(g *graph.Graph) map[string]int {
	nodes := g.Nodes()
	layers := make(map[string]int, len(nodes))
	remaining := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		remaining[n] = true
	}

	currentLayer := 0
	for len(remaining) > 0 {
		var assignable []string
		for n := range remaining {
			if allDepsAssigned(g, n, remaining) {
				assignable = append(assignable, n)
			}
		}
		if len(assignable) == 0 {
			break // remaining nodes are cycle participants
		}
		for _, n := range assignable {
			layers[n] = currentLayer
			delete(remaining, n)
		}
		currentLayer++
	}

	handleRemainingNodes(remaining, layers, currentLayer)
	return layers
}

func allDepsAssigned(g *graph.Graph, node string, remaining map[string]bool) bool {
	for _, dep := range g.Dependencies(node) {
		if remaining[dep] {
			return false
		}
	}
	return true
}

// handleRemainingNodes assigns cycle participants one layer above the last
// assigned layer.
func handleRemainingNodes(remaining map[string]bool, layers map[string]int, lastLayer int) {
	for n := range remaining {
		layers[n] = lastLayer
	}
}
