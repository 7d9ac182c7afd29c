package graph

// linkKey identifies a directed (source, target) pair for dedup. A struct
// key keeps distinct pairs distinct no matter what bytes the identifiers
// contain; node IDs arrive from model output and imports unvalidated.
type linkKey struct {
	source, target string
}

// =============================================================================
// Sanitize
// =============================================================================

// Sanitize builds a Graph satisfying the package invariants from a raw
// candidate node and link list of arbitrary provenance.
//
// Nodes with empty identifiers are dropped. When the input itself contains
// duplicate identifiers, the last occurrence wins for label, group, and
// description; the first recorded position is kept so an already-placed
// node does not jump. Links are dropped when an endpoint does not resolve
// or when an earlier link with the same (source, target) pair exists.
//
// Sanitize never fails: malformed entries are filtered silently.
func Sanitize(nodes []Node, links []Link) Graph {
	var g Graph
	index := make(map[string]int, len(nodes))

	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if i, ok := index[n.ID]; ok {
			// Last write wins for content fields, first position kept.
			x, y := g.Nodes[i].X, g.Nodes[i].Y
			g.Nodes[i] = n
			if x != 0 || y != 0 {
				g.Nodes[i].X, g.Nodes[i].Y = x, y
			}
			continue
		}
		index[n.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	seen := make(map[linkKey]bool, len(links))
	for _, l := range links {
		if _, ok := index[l.Source]; !ok {
			continue
		}
		if _, ok := index[l.Target]; !ok {
			continue
		}
		key := linkKey{l.Source, l.Target}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.Links = append(g.Links, l)
	}

	return g
}

// =============================================================================
// Merge
// =============================================================================

// MergeResult reports what a merge changed.
type MergeResult struct {
	// AddedNodes lists the identifiers of fragment nodes that were new.
	AddedNodes []string
	// AddedLinks counts fragment links that survived into the graph.
	AddedLinks int
	// DroppedLinks counts fragment links discarded as dangling or duplicate.
	DroppedLinks int
}

// Merge combines an existing graph with a raw fragment and returns a new
// Graph satisfying all invariants, plus a summary of what changed.
//
// Existing nodes always win identifier collisions (their label, group,
// description, and position are retained). Existing links are all kept;
// fragment links are added only when their (source, target) key is new and
// both endpoints resolve in the merged node set. Merging the same fragment
// twice adds nothing the second time.
//
// The existing graph is not mutated.
func Merge(existing Graph, fragment Fragment) (Graph, MergeResult) {
	var res MergeResult
	out := existing.Clone()

	ids := existing.NodeIDs()
	fragSeen := make(map[string]bool, len(fragment.Nodes))
	for _, n := range fragment.Nodes {
		if n.ID == "" {
			continue
		}
		// Existing wins across merges; first wins within the fragment.
		if ids[n.ID] || fragSeen[n.ID] {
			continue
		}
		fragSeen[n.ID] = true
		ids[n.ID] = true
		out.Nodes = append(out.Nodes, n)
		res.AddedNodes = append(res.AddedNodes, n.ID)
	}

	seen := make(map[linkKey]bool, len(out.Links))
	for _, l := range out.Links {
		seen[linkKey{l.Source, l.Target}] = true
	}
	for _, l := range fragment.Links {
		if !ids[l.Source] || !ids[l.Target] {
			res.DroppedLinks++
			continue
		}
		key := linkKey{l.Source, l.Target}
		if seen[key] {
			res.DroppedLinks++
			continue
		}
		seen[key] = true
		out.Links = append(out.Links, l)
		res.AddedLinks++
	}

	// Re-validate the full link list against the merged node set. The
	// existing graph upholds the invariants already, but a defensive pass
	// here means even a hand-constructed Graph comes out consistent.
	kept := out.Links[:0]
	for _, l := range out.Links {
		if ids[l.Source] && ids[l.Target] {
			kept = append(kept, l)
		}
	}
	out.Links = kept

	return out, res
}

// =============================================================================
// Replace
// =============================================================================

// Replace is the full-replacement path used by fresh generation and
// import: equivalent to sanitizing against an empty existing set.
func Replace(nodes []Node, links []Link) Graph {
	return Sanitize(nodes, links)
}
