package generate

import (
	"fmt"
	"strings"

	"github.com/MarkovWon/Knowdes/pkg/graph"
)

const systemPrompt = `You are a concept-mapping assistant. You output knowledge graphs as strict JSON with this exact shape:

{"nodes": [{"id": "string", "label": "string", "group": "string", "description": "string"}], "links": [{"source": "id", "target": "id", "label": "string"}]}

Rules:
- Node ids are short, stable, lowercase-hyphenated slugs.
- Every link's source and target must be a node id from your own nodes array or one of the known ids given to you.
- Output only the JSON object. No markdown fences, no commentary.`

// graphPrompt builds the user message for a generation call.
func graphPrompt(req Request) string {
	var b strings.Builder

	if len(req.Focus) == 0 {
		fmt.Fprintf(&b, "Create a concept graph for the topic %q with 8-14 nodes covering its most important concepts, grouped into 2-4 categories.\n", req.Topic)
		return b.String()
	}

	fmt.Fprintf(&b, "The existing concept graph is about %q. Expand it around the following selected concepts:\n", req.Topic)
	for _, ref := range req.Focus {
		fmt.Fprintf(&b, "- %s (id: %s)\n", ref.Label, ref.ID)
	}
	b.WriteString("\nAdd 3-6 new related nodes per selected concept and link them to the selected concepts' ids. Reuse the given ids for links into the existing graph; do not redefine the given nodes.\n")
	return b.String()
}

// planPrompt builds the user message for a study-plan call.
func planPrompt(topic string, node graph.NodeRef) string {
	return fmt.Sprintf(
		"Within the topic %q, write a short learning plan for the concept %q: three to five concrete steps, each one line, plain text.",
		topic, node.Label,
	)
}

// stripFences removes a surrounding markdown code fence if the model
// ignored the no-fences instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
