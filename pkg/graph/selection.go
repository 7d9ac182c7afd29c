package graph

// Selection tracks the set of selected node identifiers.
//
// Membership is validated against the current graph at every read and
// mutation, so the selection can never reference a node the graph no
// longer contains. Insertion order is preserved for stable display and
// for the projection sent to the generation backend.
//
// Selection is not safe for concurrent use; the owning controller
// serializes access.
type Selection struct {
	members map[string]bool
	order   []string
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{members: make(map[string]bool)}
}

// Toggle flips membership for id. Selecting an identifier not present in
// g is a no-op: stale clicks (e.g. right after a graph replacement) are
// ignored rather than errored.
func (s *Selection) Toggle(g *Graph, id string) {
	if s.members[id] {
		delete(s.members, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	if !g.HasNode(id) {
		return
	}
	s.members[id] = true
	s.order = append(s.order, id)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.members = make(map[string]bool)
	s.order = nil
}

// IsSelected reports whether id is currently selected and still present
// in g.
func (s *Selection) IsSelected(g *Graph, id string) bool {
	return s.members[id] && g.HasNode(id)
}

// List returns the selected identifiers in insertion order, filtered
// against the current graph. Identifiers no longer present are skipped.
func (s *Selection) List(g *Graph) []string {
	var out []string
	for _, id := range s.order {
		if s.members[id] && g.HasNode(id) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of selected identifiers still present in g.
func (s *Selection) Len(g *Graph) int {
	return len(s.List(g))
}

// Revalidate drops members that no longer resolve in g. Called after a
// graph replacement so the selection stays a subset of the node set.
func (s *Selection) Revalidate(g *Graph) {
	kept := s.order[:0]
	for _, id := range s.order {
		if g.HasNode(id) {
			kept = append(kept, id)
		} else {
			delete(s.members, id)
		}
	}
	s.order = kept
}

// Refs returns the minimal {id, label} projection of the selection for
// the generation backend.
func (s *Selection) Refs(g *Graph) []NodeRef {
	var refs []NodeRef
	for _, id := range s.List(g) {
		n := g.FindNode(id)
		refs = append(refs, NodeRef{ID: n.ID, Label: n.DisplayLabel()})
	}
	return refs
}
