// Package expand coordinates selection-driven graph expansion.
//
// An expansion sends the selected nodes to the generation backend and
// merges the resulting fragment. The coordinator enforces the
// at-most-one-in-flight policy: while a call is outstanding, further
// triggers are rejected (not queued). There is no cancellation primitive;
// instead, a fragment that resolves after the graph has been replaced is
// detected via the workspace epoch and discarded.
package expand

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"

	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/graph"
)

// Source is the workspace surface the coordinator needs: a snapshot with
// its epoch, the selection projection, and the epoch-checked merge.
type Source interface {
	Snapshot() (graph.Graph, uint64)
	Topic() string
	SelectionRefs() []graph.NodeRef
	ApplyMerge(frag graph.Fragment, epoch uint64) (graph.MergeResult, bool)
}

// Coordinator runs expansions against a Source.
type Coordinator struct {
	gen    generate.Generator
	logger *log.Logger
	busy   atomic.Bool
}

// New creates a coordinator. A nil logger silences it.
func New(gen generate.Generator, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Coordinator{gen: gen, logger: logger}
}

// Busy reports whether an expansion is in flight.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Expand runs one expansion for the current selection.
//
// Contract:
//   - An empty selection is a silent no-op; the backend is never called.
//   - A second trigger while one is in flight fails with EXPANSION_BUSY.
//   - On backend failure the graph and selection are untouched and the
//     error is returned for retry.
//   - If the graph was replaced while the call was in flight, the
//     fragment is discarded and Expand fails with EXPANSION_STALE.
//   - The selection is preserved in every outcome.
func (c *Coordinator) Expand(ctx context.Context, src Source) (graph.MergeResult, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return graph.MergeResult{}, kerrors.New(kerrors.ErrCodeExpansionBusy, "an expansion is already in flight")
	}
	defer c.busy.Store(false)

	// Epoch before refs: a Replace landing after the epoch is captured
	// bumps it, so the merge below rejects the fragment. Reading the
	// refs first would let a concurrent Replace pair the old selection
	// with the new epoch and slip past the stale check.
	_, epoch := src.Snapshot()
	refs := src.SelectionRefs()
	if len(refs) == 0 {
		c.logger.Debug("expansion skipped: empty selection")
		return graph.MergeResult{}, nil
	}

	frag, err := c.gen.Generate(ctx, generate.Request{Topic: src.Topic(), Focus: refs})
	if err != nil {
		return graph.MergeResult{}, kerrors.Wrap(kerrors.ErrCodeGeneration, err, "expansion generation failed")
	}

	res, ok := src.ApplyMerge(frag, epoch)
	if !ok {
		c.logger.Debug("expansion discarded: graph replaced mid-flight")
		return graph.MergeResult{}, kerrors.New(kerrors.ErrCodeExpansionStale, "graph was replaced while the expansion was in flight")
	}

	c.logger.Debug("expansion merged",
		"added_nodes", len(res.AddedNodes),
		"added_links", res.AddedLinks,
		"dropped_links", res.DroppedLinks)
	return res, nil
}
