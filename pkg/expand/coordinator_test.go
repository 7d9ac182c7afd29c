package expand

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// fakeGenerator returns a fixed fragment (or error), counting calls and
// optionally blocking until released.
type fakeGenerator struct {
	calls   atomic.Int32
	frag    graph.Fragment
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req generate.Request) (graph.Fragment, error) {
	f.calls.Add(1)
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return graph.Fragment{}, ctx.Err()
		}
	}
	if f.err != nil {
		return graph.Fragment{}, f.err
	}
	return f.frag, nil
}

func seededStore(t *testing.T) *workspace.Store {
	t.Helper()
	s := workspace.NewStore()
	s.Replace("testing",
		[]graph.Node{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}},
		[]graph.Link{{Source: "a", Target: "b"}},
	)
	return s
}

func TestExpandMergesFragment(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")

	gen := &fakeGenerator{frag: graph.Fragment{
		Nodes: []graph.Node{{ID: "c", Label: "Gamma"}},
		Links: []graph.Link{{Source: "a", Target: "c"}},
	}}
	c := New(gen, nil)

	res, err := c.Expand(context.Background(), store)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !reflect.DeepEqual(res.AddedNodes, []string{"c"}) {
		t.Errorf("AddedNodes = %v, want [c]", res.AddedNodes)
	}
	g, _ := store.Snapshot()
	if !g.HasNode("c") {
		t.Error("expanded node missing from graph")
	}
	// Selection survives a successful expansion.
	if got, want := store.SelectedIDs(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedIDs = %v, want %v", got, want)
	}
}

func TestExpandEmptySelectionIsNoOp(t *testing.T) {
	store := seededStore(t)
	gen := &fakeGenerator{}
	c := New(gen, nil)

	res, err := c.Expand(context.Background(), store)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(res.AddedNodes) != 0 {
		t.Errorf("AddedNodes = %v, want none", res.AddedNodes)
	}
	if gen.calls.Load() != 0 {
		t.Errorf("generator calls = %d, want 0 for empty selection", gen.calls.Load())
	}
}

func TestExpandRejectsConcurrentTrigger(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")

	gen := &fakeGenerator{
		frag:    graph.Fragment{Nodes: []graph.Node{{ID: "c"}}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(gen, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Expand(context.Background(), store)
		done <- err
	}()

	<-gen.started
	if !c.Busy() {
		t.Error("Busy() = false while a call is in flight")
	}

	// Second trigger is rejected, not queued.
	_, err := c.Expand(context.Background(), store)
	if kerrors.GetCode(err) != kerrors.ErrCodeExpansionBusy {
		t.Errorf("GetCode = %v, want %v", kerrors.GetCode(err), kerrors.ErrCodeExpansionBusy)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first Expand: %v", err)
	}
	if c.Busy() {
		t.Error("Busy() = true after the call resolved")
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want 1 (rejection must not queue)", gen.calls.Load())
	}
}

func TestExpandFailurePreservesState(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")
	before, _ := store.Snapshot()

	gen := &fakeGenerator{err: errors.New("backend down")}
	c := New(gen, nil)

	_, err := c.Expand(context.Background(), store)
	if err == nil {
		t.Fatal("Expand: want error, got nil")
	}

	after, _ := store.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Error("graph changed after a failed expansion")
	}
	if got, want := store.SelectedIDs(), []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedIDs = %v, want %v (retry must remain possible)", got, want)
	}
	if c.Busy() {
		t.Error("Busy() stuck after a failed expansion")
	}

	// The failed expansion can be retried immediately.
	gen.err = nil
	gen.frag = graph.Fragment{Nodes: []graph.Node{{ID: "c"}}}
	if _, err := c.Expand(context.Background(), store); err != nil {
		t.Fatalf("retry Expand: %v", err)
	}
}

func TestExpandStaleFragmentDiscarded(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")

	gen := &fakeGenerator{
		frag:    graph.Fragment{Nodes: []graph.Node{{ID: "c"}}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(gen, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Expand(context.Background(), store)
		done <- err
	}()

	<-gen.started
	// Replace the graph while the call is in flight.
	store.Replace("other", []graph.Node{{ID: "x"}}, nil)
	close(gen.release)

	err := <-done
	if kerrors.GetCode(err) != kerrors.ErrCodeExpansionStale {
		t.Errorf("GetCode = %v, want %v", kerrors.GetCode(err), kerrors.ErrCodeExpansionStale)
	}

	g, _ := store.Snapshot()
	if g.HasNode("c") {
		t.Error("stale fragment leaked into the replaced graph")
	}
}

// replacingSource swaps the whole graph out from under the coordinator at
// the moment the selection is read, after the epoch has been captured.
type replacingSource struct {
	*workspace.Store
	replaced bool
}

func (r *replacingSource) SelectionRefs() []graph.NodeRef {
	if !r.replaced {
		r.replaced = true
		// Node "a" survives the replacement, so the revalidated
		// selection stays non-empty and the expansion proceeds.
		r.Store.Replace("other", []graph.Node{{ID: "a", Label: "Alpha"}}, nil)
	}
	return r.Store.SelectionRefs()
}

func TestExpandReplaceDuringSelectionReadIsStale(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")

	gen := &fakeGenerator{frag: graph.Fragment{Nodes: []graph.Node{{ID: "c"}}}}
	c := New(gen, nil)

	src := &replacingSource{Store: store}
	_, err := c.Expand(context.Background(), src)
	if kerrors.GetCode(err) != kerrors.ErrCodeExpansionStale {
		t.Errorf("GetCode = %v, want %v", kerrors.GetCode(err), kerrors.ErrCodeExpansionStale)
	}

	g, _ := store.Snapshot()
	if g.HasNode("c") {
		t.Error("fragment for the replaced graph leaked in")
	}
	if c.Busy() {
		t.Error("Busy() stuck after a stale expansion")
	}
}

func TestSequentialOverlappingExpansionsAddNothingTwice(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")

	gen := &fakeGenerator{frag: graph.Fragment{
		Nodes: []graph.Node{{ID: "c"}},
		Links: []graph.Link{{Source: "a", Target: "c"}},
	}}
	c := New(gen, nil)

	if _, err := c.Expand(context.Background(), store); err != nil {
		t.Fatalf("first Expand: %v", err)
	}
	res, err := c.Expand(context.Background(), store)
	if err != nil {
		t.Fatalf("second Expand: %v", err)
	}

	if len(res.AddedNodes) != 0 || res.AddedLinks != 0 {
		t.Errorf("second expansion added nodes=%v links=%d, want nothing", res.AddedNodes, res.AddedLinks)
	}
	g, _ := store.Snapshot()
	if len(g.Nodes) != 3 {
		t.Errorf("node count = %d, want 3", len(g.Nodes))
	}
	if len(g.Links) != 2 {
		t.Errorf("link count = %d, want 2", len(g.Links))
	}
}

func TestExpandHonorsContext(t *testing.T) {
	store := seededStore(t)
	store.ToggleSelection("a")

	gen := &fakeGenerator{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Expand(ctx, store)
		done <- err
	}()

	<-gen.started
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expand: want error after cancellation, got nil")
		}
	case <-time.After(time.Second):
		t.Fatal("Expand did not return after context cancellation")
	}
}
