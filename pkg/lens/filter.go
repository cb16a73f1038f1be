package lens

import (
	"github.com/ritzau/net-topology/pkg/graph"
)

// FilterByMinComponentSize returns the subgraph induced by the connected
// components that have at least minSize nodes. A minSize of 1 or less keeps every node.
func FilterByMinComponentSize(g *graph.Graph, minSize int) *graph.Graph {
	keep := make(map[string]bool, g.NodeCount())
	dropped := 0
	for _, component := range g.Components() {
		if len(component) < minSize {
			dropped++
			continue
		}
		for _, key := range component {
			keep[key] = true
		}
	}

	out := graph.New()
	for _, node := range g.Nodes() {
		if keep[node.Key] {
			out.InsertNode(node)
		}
	}
	for _, edge := range g.Edges() {
		if keep[edge.Source] && keep[edge.Target] {
			if err := out.InsertEdge(edge); err != nil {
				log.Error("failed to insert filtered edge", "from", edge.Source, "to", edge.Target, "error", err)
			}
		}
	}

	if dropped > 0 {
		log.Debug("dropped small components", "min", minSize, "components", dropped, "nodesKept", out.NodeCount())
	}
	return out
}
