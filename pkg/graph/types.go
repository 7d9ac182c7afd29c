package graph

// =============================================================================
// Core Types
// =============================================================================

// Node is a labeled concept in the graph.
//
// Position fields are owned by the data store but written by the layout
// engine after each settle; they are persisted so a reloaded graph starts
// near its previous shape instead of re-scrambling.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label,omitempty"`
	Group       string  `json:"group,omitempty"`
	Description string  `json:"description,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Link is a directed, optionally labeled relationship between two nodes.
// Endpoints are identifier references, never owned copies.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Graph is the canonical node/link collection.
// Construct graphs through [Sanitize], [Merge], or [Replace] so the
// invariants hold; a zero Graph is valid and empty.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Fragment is a raw, unvalidated {nodes, links} payload from an external
// generation call or import, prior to sanitization.
type Fragment struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NodeRef is the minimal projection of a node sent to the generation
// backend when expanding a selection.
type NodeRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// =============================================================================
// Lookup Helpers
// =============================================================================

// HasNode reports whether id exists in the node set.
func (g *Graph) HasNode(id string) bool {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return true
		}
	}
	return false
}

// FindNode returns the node with the given id, or nil.
func (g *Graph) FindNode(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// NodeIDs returns the set of node identifiers.
func (g *Graph) NodeIDs() map[string]bool {
	ids := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		ids[g.Nodes[i].ID] = true
	}
	return ids
}

// Clone returns a deep copy of the graph.
// The layout engine and HTTP handlers work on snapshots, never on the
// store's own slices.
func (g *Graph) Clone() Graph {
	out := Graph{}
	if len(g.Nodes) > 0 {
		out.Nodes = make([]Node, len(g.Nodes))
		copy(out.Nodes, g.Nodes)
	}
	if len(g.Links) > 0 {
		out.Links = make([]Link, len(g.Links))
		copy(out.Links, g.Links)
	}
	return out
}
