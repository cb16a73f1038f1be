package lens

import (
	"github.com/ritzau/net-topology/pkg/graph"
	"github.com/ritzau/net-topology/pkg/logging"
)

// View names a presentation of the topology
type View string

const (
	ViewRaw        View = "raw"        // One node per resource
	ViewAggregated View = "aggregated" // VPCs grouped per account and region
)

// ParseView maps a view name to a View; unrecognized names select the raw view
func ParseView(name string) View {
	if View(name) == ViewAggregated {
		return ViewAggregated
	}
	return ViewRaw
}

// LensConfig defines how a topology graph is transformed for display
type LensConfig struct {
	View             View `json:"view"`
	MinComponentSize int  `json:"minComponentSize"`
}

var log = logging.New("lens")

// Render applies the lens to g and returns a new graph; g is not modified.
// Aggregation runs first, so the component filter sees super-nodes.
func Render(g *graph.Graph, cfg LensConfig) *graph.Graph {
	out := g
	if cfg.View == ViewAggregated {
		out = AggregateByAccountRegion(out)
	}
	out = FilterByMinComponentSize(out, cfg.MinComponentSize)

	log.Debug("lens applied",
		"view", cfg.View,
		"min", cfg.MinComponentSize,
		"nodesIn", g.NodeCount(),
		"nodesOut", out.NodeCount(),
		"edgesOut", out.EdgeCount(),
	)
	return out
}
