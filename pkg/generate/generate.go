// Package generate talks to the fragment-generation backend.
//
// The backend is any OpenAI-compatible chat completions API. Prompts ask
// for a strict JSON {nodes, links} payload; the response is fence-stripped
// and decoded into a [graph.Fragment]. Content problems inside an
// otherwise parsable fragment (dangling links, duplicate ids) are not
// handled here — the graph package's sanitize/merge path owns that.
//
// Responses are cached keyed on (model, prompt) and transient HTTP
// failures are retried with backoff.
package generate

import (
	"context"

	"github.com/MarkovWon/Knowdes/pkg/graph"
)

// Request describes one generation call.
type Request struct {
	// Topic is the subject of the graph.
	Topic string
	// Focus lists the selected nodes to expand around. Empty for the
	// initial generation of a fresh graph.
	Focus []graph.NodeRef
}

// Generator produces raw graph fragments. Implementations must leave the
// caller's state untouched on failure.
type Generator interface {
	Generate(ctx context.Context, req Request) (graph.Fragment, error)
}

// Planner produces free-text study plans for a single node, used by the
// viewer's detail pane.
type Planner interface {
	Plan(ctx context.Context, topic string, node graph.NodeRef) (string, error)
}
