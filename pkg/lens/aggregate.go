package lens

import (
	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/model"
)

// SuperNodeKey returns the key of the account:region node a VPC is grouped into
func SuperNodeKey(account, region string) string {
	return account + ":" + region
}

// AggregateByAccountRegion collapses every VPC with a known account and
// region into one node per account:region pair. Other nodes are copied as
// they are. Edges are rewritten to the grouped endpoints; edges that end up
// inside one group are counted on the group node instead of being drawn.
func AggregateByAccountRegion(g *graph.Graph) *graph.Graph {
	rewrite := make(map[string]string)
	groups := make(map[string]*model.Node)
	var order []string
	var passthrough []model.Node

	for _, node := range g.Nodes() {
		if node.ResourceType != model.ResourceVPC || node.Account == "" || node.Region == "" {
			rewrite[node.Key] = node.Key
			passthrough = append(passthrough, node)
			continue
		}

		key := SuperNodeKey(node.Account, node.Region)
		rewrite[node.Key] = key

		group, ok := groups[key]
		if !ok {
			n := model.NewNode(key, model.ResourceVPC, "")
			n.Account = node.Account
			n.Region = node.Region
			group = &n
			groups[key] = group
			order = append(order, key)
		}
		group.Members = append(group.Members, node.Key)
	}

	var edges []model.Edge
	for _, edge := range g.Edges() {
		src, dst := rewrite[edge.Source], rewrite[edge.Target]
		if src == dst {
			if group, ok := groups[src]; ok {
				group.InternalEdges += edge.Multiplicity
			}
			continue
		}
		edge.Source, edge.Target = src, dst
		edges = append(edges, edge)
	}

	out := graph.New()
	for _, key := range order {
		out.InsertNode(*groups[key])
	}
	for _, node := range passthrough {
		// A resource whose key looks like account:region loses to the group
		if !out.InsertNode(node) {
			log.Warn("node key collides with account:region group", "key", node.Key)
		}
	}
	for _, edge := range edges {
		if err := out.InsertEdge(edge); err != nil {
			log.Error("failed to insert aggregated edge", "from", edge.Source, "to", edge.Target, "error", err)
		}
	}

	log.Debug("aggregated by account and region", "groups", len(order), "nodes", out.NodeCount(), "edges", out.EdgeCount())
	return out
}
