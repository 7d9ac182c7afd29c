// Package render exports concept graphs to static formats: Graphviz DOT,
// SVG, PNG, a standalone interactive HTML page, and a Markdown outline.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/MarkovWon/Knowdes/pkg/graph"
)

// groupPalette cycles fill colors per group tag, in first-seen order.
var groupPalette = []string{
	"#a6cee3", "#b2df8a", "#fdbf6f", "#cab2d6",
	"#fb9a99", "#ffff99", "#80b1d3", "#fccde5",
}

// ToDOT converts a graph to Graphviz DOT format.
//
// Groups map to fill colors, link labels become edge labels, and nodes
// that carry settled layout positions emit pos attributes (honored by the
// neato engine, ignored by dot).
func ToDOT(g graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph concepts {\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	colors := map[string]string{}
	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", n.DisplayLabel())}
		if n.Group != "" {
			c, ok := colors[n.Group]
			if !ok {
				c = groupPalette[len(colors)%len(groupPalette)]
				colors[n.Group] = c
			}
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
		}
		if n.Description != "" {
			attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Description))
		}
		if n.X != 0 || n.Y != 0 {
			attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f\"", n.X, -n.Y))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		if l.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=10];\n", l.Source, l.Target, l.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", l.Source, l.Target)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderAs(ctx, dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderAs(ctx, dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderAs(ctx context.Context, dot string, format graphviz.Format, buf *bytes.Buffer) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
