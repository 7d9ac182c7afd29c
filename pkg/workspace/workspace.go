// Package workspace owns the mutable application state: the current
// graph, the selection, and the save/load lifecycle.
//
// The Store is the single owner of the graph snapshot and selection set.
// The layout engine and HTTP handlers receive copies; every mutation goes
// through the Store so the graph invariants and the selection-subset
// invariant hold at all times.
//
// Each full replacement bumps an epoch counter. An expansion captures the
// epoch when it launches and presents it again when its fragment resolves;
// a mismatch means the graph was replaced mid-flight and the fragment
// must be discarded (its node identifiers reference a dead graph).
package workspace

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/observability"
)

// Store holds the canonical graph, selection, and document identity.
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	id        string
	topic     string
	graph     graph.Graph
	selection *graph.Selection
	epoch     uint64
}

// NewStore creates an empty workspace with a fresh document identity.
func NewStore() *Store {
	return &Store{
		id:        uuid.NewString(),
		selection: graph.NewSelection(),
	}
}

// =============================================================================
// Snapshots
// =============================================================================

// Snapshot returns a copy of the current graph and the epoch it belongs
// to. The copy is safe to hand to the layout engine or serialize.
func (s *Store) Snapshot() (graph.Graph, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone(), s.epoch
}

// Topic returns the current document topic.
func (s *Store) Topic() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topic
}

// ID returns the document identity.
func (s *Store) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// =============================================================================
// Mutations
// =============================================================================

// Replace swaps in a fully new graph built from raw nodes and links,
// assigns a new document identity, and bumps the epoch. The selection is
// revalidated so it stays a subset of the new node set.
func (s *Store) Replace(topic string, nodes []graph.Node, links []graph.Link) graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = graph.Replace(nodes, links)
	s.topic = topic
	s.id = uuid.NewString()
	s.epoch++
	s.selection.Revalidate(&s.graph)

	observability.Graph().OnReplace(context.Background(), len(s.graph.Nodes), len(s.graph.Links))
	return s.graph.Clone()
}

// ApplyMerge merges a fragment produced against the given epoch. If the
// graph has been replaced since (epoch mismatch), the fragment is
// discarded and ok is false. The selection is left untouched either way;
// merges only ever extend the node set.
func (s *Store) ApplyMerge(frag graph.Fragment, epoch uint64) (graph.MergeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return graph.MergeResult{}, false
	}

	merged, res := graph.Merge(s.graph, frag)
	s.graph = merged

	observability.Graph().OnMerge(context.Background(), len(res.AddedNodes), res.AddedLinks, res.DroppedLinks)
	return res, true
}

// ApplyPositions writes settled layout coordinates back into the graph.
// Unknown identifiers are ignored.
func (s *Store) ApplyPositions(pos map[string][2]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.graph.Nodes {
		if p, ok := pos[s.graph.Nodes[i].ID]; ok {
			s.graph.Nodes[i].X = p[0]
			s.graph.Nodes[i].Y = p[1]
		}
	}
}

// =============================================================================
// Selection
// =============================================================================

// ToggleSelection flips selection membership for id; unknown identifiers
// are ignored.
func (s *Store) ToggleSelection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Toggle(&s.graph, id)
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.IsSelected(&s.graph, id)
}

// SelectedIDs returns the selected identifiers in insertion order.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.List(&s.graph)
}

// SelectionRefs returns the {id, label} projection of the selection for
// the generation backend.
func (s *Store) SelectionRefs() []graph.NodeRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Refs(&s.graph)
}

// =============================================================================
// Persistence
// =============================================================================

// Document returns the serializable form of the workspace.
func (s *Store) Document() graph.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Document{
		ID:    s.id,
		Topic: s.topic,
		Graph: s.graph.Clone(),
	}
}

// Save writes the workspace to a JSON file.
func (s *Store) Save(path string) error {
	return graph.WriteDocumentFile(s.Document(), path)
}

// Load reads a document file into the workspace, replacing the current
// graph. The document's identity and topic are adopted; the epoch still
// bumps so in-flight expansions against the old graph are discarded.
func (s *Store) Load(path string) error {
	doc, err := graph.ReadDocumentFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = doc.Graph
	s.topic = doc.Topic
	if doc.ID != "" {
		s.id = doc.ID
	}
	s.epoch++
	s.selection.Revalidate(&s.graph)
	return nil
}
