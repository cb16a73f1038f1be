package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ritzau/net-topology/pkg/arn"
	"github.com/ritzau/net-topology/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	// ErrSelfLoop is returned when both endpoints of an edge canonicalize to the same key
	ErrSelfLoop = errors.New("edge endpoints resolve to the same node")

	// ErrUnknownNode is returned when inserting an edge whose endpoint is not in the graph
	ErrUnknownNode = errors.New("node not in graph")
)

// edgeKey identifies an undirected edge; a <= b
type edgeKey struct {
	a, b string
}

func newEdgeKey(x, y string) edgeKey {
	if y < x {
		x, y = y, x
	}
	return edgeKey{a: x, b: y}
}

// Graph is the topology graph: one node per canonical resource key and one
// edge per unordered pair of nodes. Node and edge attributes live here, the
// connectivity is mirrored into a gonum graph for graph algorithms.
//
// A Graph is not safe for concurrent mutation.
type Graph struct {
	graph     *simple.UndirectedGraph
	nodes     map[string]*model.Node
	nodeOrder []string
	ids       map[string]int64 // Map from node key to gonum ID
	keys      map[int64]string // Map from gonum ID to node key
	edges     map[edgeKey]*model.Edge
	edgeOrder []edgeKey
	nextID    int64
}

// New creates an empty topology graph
func New() *Graph {
	return &Graph{
		graph: simple.NewUndirectedGraph(),
		nodes: make(map[string]*model.Node),
		ids:   make(map[string]int64),
		keys:  make(map[int64]string),
		edges: make(map[edgeKey]*model.Edge),
	}
}

// UpsertNode adds a resource node or updates its name.
//
// The key is canonicalized first. A new node gets the template attributes
// for rt plus the account and region parsed from the key. An existing node
// only changes when a non-empty name is given, in which case name and title
// are updated in place. Returns the canonical key.
func (g *Graph) UpsertNode(key string, rt model.ResourceType, name string) string {
	key = arn.Canonicalize(key)

	if existing, ok := g.nodes[key]; ok {
		if name != "" {
			existing.Name = name
			existing.Title = model.FormatTitle(key, name)
		}
		return key
	}

	node := model.NewNode(key, rt, name)
	if account, region, ok := arn.AccountRegion(key); ok {
		node.Account = account
		node.Region = region
	}
	g.addNode(node)
	return key
}

// AddEdge records a relationship between two resources.
//
// Both keys are canonicalized and missing endpoints are created with a type
// inferred from the key shape. The edge gets the color and weight of kind and
// relationshipID as title. A second relationship between the same pair is
// merged into the existing edge (see model.Edge.Merge).
//
// Returns ErrSelfLoop, without touching the graph, if both keys resolve to the same node.
func (g *Graph) AddEdge(keyA, keyB string, kind model.RelationshipKind, relationshipID string) error {
	keyA = arn.Canonicalize(keyA)
	keyB = arn.Canonicalize(keyB)
	if keyA == keyB {
		return fmt.Errorf("%s %q: %w", kind, keyA, ErrSelfLoop)
	}

	for _, key := range []string{keyA, keyB} {
		if _, ok := g.nodes[key]; !ok {
			g.UpsertNode(key, InferResourceType(key), "")
		}
	}

	g.putEdge(model.NewEdge(keyA, keyB, kind, relationshipID))
	return nil
}

// InsertNode copies a fully built node into the graph.
// Used when deriving views; returns false if the key was already present.
func (g *Graph) InsertNode(node model.Node) bool {
	if _, ok := g.nodes[node.Key]; ok {
		return false
	}
	g.addNode(node.Clone())
	return true
}

// InsertEdge copies a fully built edge into the graph, merging it with an
// existing edge between the same pair. Both endpoints must already exist.
func (g *Graph) InsertEdge(edge model.Edge) error {
	if edge.Source == edge.Target {
		return fmt.Errorf("%s %q: %w", edge.Kind, edge.Source, ErrSelfLoop)
	}
	for _, key := range []string{edge.Source, edge.Target} {
		if _, ok := g.nodes[key]; !ok {
			return fmt.Errorf("edge endpoint %q: %w", key, ErrUnknownNode)
		}
	}
	g.putEdge(edge.Clone())
	return nil
}

func (g *Graph) addNode(node model.Node) {
	n := node
	g.nodes[n.Key] = &n
	g.nodeOrder = append(g.nodeOrder, n.Key)
	g.ids[n.Key] = g.nextID
	g.keys[g.nextID] = n.Key

	// Add node to gonum graph
	g.graph.AddNode(simple.Node(g.nextID))

	g.nextID++
}

func (g *Graph) putEdge(edge model.Edge) {
	k := newEdgeKey(edge.Source, edge.Target)
	if existing, ok := g.edges[k]; ok {
		existing.Merge(edge)
		return
	}

	e := edge
	g.edges[k] = &e
	g.edgeOrder = append(g.edgeOrder, k)

	from := g.graph.Node(g.ids[edge.Source])
	to := g.graph.Node(g.ids[edge.Target])
	g.graph.SetEdge(g.graph.NewEdge(from, to))
}

// InferResourceType guesses the resource type of a key from its shape:
// the ARN resource segment if the key is ARN-shaped, otherwise the bare ID prefix.
func InferResourceType(key string) model.ResourceType {
	if segment, ok := arn.ResourceType(key); ok {
		return model.ResourceTypeFromARN(segment)
	}
	return model.ResourceTypeFromID(key)
}

// Node returns a copy of the node with the given key
func (g *Graph) Node(key string) (model.Node, bool) {
	n, ok := g.nodes[arn.Canonicalize(key)]
	if !ok {
		n, ok = g.nodes[key]
	}
	if !ok {
		return model.Node{}, false
	}
	return n.Clone(), true
}

// HasNode returns true if a node with the given key exists
func (g *Graph) HasNode(key string) bool {
	_, ok := g.Node(key)
	return ok
}

// Edge returns a copy of the edge between two nodes, in either direction
func (g *Graph) Edge(keyA, keyB string) (model.Edge, bool) {
	e, ok := g.edges[newEdgeKey(keyA, keyB)]
	if !ok {
		e, ok = g.edges[newEdgeKey(arn.Canonicalize(keyA), arn.Canonicalize(keyB))]
	}
	if !ok {
		return model.Edge{}, false
	}
	return e.Clone(), true
}

// Nodes returns copies of all nodes in insertion order
func (g *Graph) Nodes() []model.Node {
	nodes := make([]model.Node, 0, len(g.nodeOrder))
	for _, key := range g.nodeOrder {
		nodes = append(nodes, g.nodes[key].Clone())
	}
	return nodes
}

// Edges returns copies of all edges in insertion order
func (g *Graph) Edges() []model.Edge {
	edges := make([]model.Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		edges = append(edges, g.edges[k].Clone())
	}
	return edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Components returns the connected components as lists of node keys.
// Keys within a component, and the components themselves, follow node
// insertion order.
func (g *Graph) Components() [][]string {
	index := make(map[string]int, len(g.nodeOrder))
	for i, key := range g.nodeOrder {
		index[key] = i
	}

	var components [][]string
	for _, cc := range topo.ConnectedComponents(g.graph) {
		keys := make([]string, 0, len(cc))
		for _, n := range cc {
			keys = append(keys, g.keys[n.ID()])
		}
		sort.Slice(keys, func(i, j int) bool { return index[keys[i]] < index[keys[j]] })
		components = append(components, keys)
	}

	sort.Slice(components, func(i, j int) bool {
		return index[components[i][0]] < index[components[j][0]]
	})
	return components
}

// Snapshot returns the serializable form of the graph
func (g *Graph) Snapshot() *model.Graph {
	return &model.Graph{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	}
}
