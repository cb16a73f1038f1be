package model

// Graph is the serializable form of a topology.
// It is the common data model handed to renderers and the web API.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents one cloud network resource.
// Key is the canonical resource identifier and the node identity.
type Node struct {
	Key          string       `json:"id"`
	ResourceType ResourceType `json:"resource_type"`
	Label        string       `json:"label"`
	Name         string       `json:"name,omitempty"`
	Title        string       `json:"title"`
	Account      string       `json:"account,omitempty"`
	Region       string       `json:"region,omitempty"`
	Level        int          `json:"level"`
	Size         int          `json:"size"`
	Image        string       `json:"image,omitempty"`

	// Set on aggregated account:region nodes only
	Members       []string `json:"members,omitempty"`
	InternalEdges int      `json:"internal_edges,omitempty"`
}

// Edge represents an undirected relationship between two nodes.
// Parallel relationships between the same pair are merged into one edge.
type Edge struct {
	Source       string           `json:"from"`
	Target       string           `json:"to"`
	Kind         RelationshipKind `json:"kind"`
	Color        string           `json:"color"`
	Title        string           `json:"title"`
	Weight       float64          `json:"weight"`
	Multiplicity int              `json:"multiplicity"`
	Titles       []string         `json:"titles,omitempty"`
}

// NewNode creates a node from the template for its resource type
func NewNode(key string, rt ResourceType, name string) Node {
	tmpl := Template(rt)
	return Node{
		Key:          key,
		ResourceType: rt,
		Label:        tmpl.Label,
		Name:         name,
		Title:        FormatTitle(key, name),
		Level:        tmpl.Level,
		Size:         tmpl.Size,
		Image:        tmpl.Image,
	}
}

// NewEdge creates an edge styled for its relationship kind.
// Relationships without an identifier get one derived from the kind and
// endpoints, so rediscovering the same relationship is still recognized.
func NewEdge(source, target string, kind RelationshipKind, relationshipID string) Edge {
	style := Style(kind)
	id := relationshipID
	if id == "" {
		a, b := source, target
		if b < a {
			a, b = b, a
		}
		id = string(kind) + ":" + a + "|" + b
	}
	return Edge{
		Source:       source,
		Target:       target,
		Kind:         kind,
		Color:        style.Color,
		Title:        relationshipID,
		Weight:       style.Weight,
		Multiplicity: 1,
		Titles:       []string{id},
	}
}

// FormatTitle builds the display title for a node
func FormatTitle(key, name string) string {
	if name == "" {
		return key
	}
	return name + " (" + key + ")"
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	if n.Members != nil {
		n.Members = append([]string(nil), n.Members...)
	}
	return n
}

// Clone returns a deep copy of the edge
func (e Edge) Clone() Edge {
	if e.Titles != nil {
		e.Titles = append([]string(nil), e.Titles...)
	}
	return e
}

// HasRelationship returns true if the relationship ID was already merged into this edge
func (e *Edge) HasRelationship(id string) bool {
	for _, t := range e.Titles {
		if t == id {
			return true
		}
	}
	return false
}

// Merge folds a parallel relationship into this edge and reports whether
// anything changed. A relationship that was already merged is ignored.
// Otherwise multiplicity and weight accumulate for each new relationship
// and its ID is recorded; kind, color and title of the first relationship
// are kept.
func (e *Edge) Merge(other Edge) bool {
	var added []string
	for _, t := range other.Titles {
		if !e.HasRelationship(t) && !contains(added, t) {
			added = append(added, t)
		}
	}
	if len(added) == 0 {
		return false
	}

	weight := other.Weight
	if len(added) < len(other.Titles) {
		// Only part of other is new: count just those relationships
		weight = float64(len(added)) * Style(other.Kind).Weight
	}
	e.Multiplicity += len(added)
	e.Weight += weight
	e.Titles = append(e.Titles, added...)
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NodeCountByType returns the number of nodes of each resource type
func (g *Graph) NodeCountByType() map[ResourceType]int {
	counts := make(map[ResourceType]int)
	for _, n := range g.Nodes {
		counts[n.ResourceType]++
	}
	return counts
}

// EdgeCountByKind returns the number of edges of each relationship kind
func (g *Graph) EdgeCountByKind() map[RelationshipKind]int {
	counts := make(map[RelationshipKind]int)
	for _, e := range g.Edges {
		counts[e.Kind]++
	}
	return counts
}
