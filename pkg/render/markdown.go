package render

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/MarkovWon/Knowdes/pkg/graph"
)

// ToMarkdown writes the graph as a readable outline: nodes grouped by
// their group tag, each with its description and outgoing links.
func ToMarkdown(g graph.Graph, title string) string {
	var buf bytes.Buffer
	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}

	outgoing := map[string][]graph.Link{}
	for _, l := range g.Links {
		outgoing[l.Source] = append(outgoing[l.Source], l)
	}

	grouped := map[string][]graph.Node{}
	var order []string
	for _, n := range g.Nodes {
		if _, seen := grouped[n.Group]; !seen {
			order = append(order, n.Group)
		}
		grouped[n.Group] = append(grouped[n.Group], n)
	}
	sort.Strings(order)

	for _, group := range order {
		heading := group
		if heading == "" {
			heading = "Ungrouped"
		}
		fmt.Fprintf(&buf, "## %s\n\n", heading)

		for _, n := range grouped[group] {
			fmt.Fprintf(&buf, "- **%s**", n.DisplayLabel())
			if n.Description != "" {
				fmt.Fprintf(&buf, " — %s", n.Description)
			}
			buf.WriteString("\n")
			for _, l := range outgoing[n.ID] {
				target := g.FindNode(l.Target)
				if target == nil {
					continue
				}
				label := l.Label
				if label == "" {
					label = "relates to"
				}
				fmt.Fprintf(&buf, "  - %s %s\n", label, target.DisplayLabel())
			}
		}
		buf.WriteString("\n")
	}

	return buf.String()
}
