package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
	"github.com/MarkovWon/Knowdes/pkg/graph"
	"github.com/MarkovWon/Knowdes/pkg/layout"
	"github.com/MarkovWon/Knowdes/pkg/render"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// exportFormats lists the supported export targets.
var exportFormats = []string{"json", "dot", "svg", "png", "html", "md"}

// settleSteps caps headless layout iterations for exports.
const settleSteps = 1000

// =============================================================================
// Import
// =============================================================================

// importCommand creates the "import" command: foreign JSON in, sanitized
// document out.
func (c *CLI) importCommand() *cobra.Command {
	var (
		output string
		topic  string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a graph from a JSON file",
		Long: `Import accepts either a bare {"nodes": [...], "links": [...]} object or a
full document with a graphData envelope. Malformed entries are filtered
silently: nodes without ids, links to unknown nodes, and duplicates
never make it into the document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "cannot read %s", args[0])
			}

			frag, docTopic, err := graph.ParseImport(data)
			if err != nil {
				return err
			}
			if topic == "" {
				topic = docTopic
			}
			if topic == "" {
				topic = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			store := workspace.NewStore()
			g := store.Replace(topic, frag.Nodes, frag.Links)
			if err := store.Save(output); err != nil {
				return err
			}

			dropped := len(frag.Nodes) - len(g.Nodes)
			printSuccess("Imported %q", topic)
			printStats(len(g.Nodes), len(g.Links))
			if dropped > 0 {
				printDetail("%d malformed or duplicate nodes filtered", dropped)
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "graph.json", "output document file")
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic to record (default: from the input)")

	return cmd
}

// =============================================================================
// Export
// =============================================================================

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format    string
		output    string
		runLayout bool
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a graph to another format",
		Long: `Export converts a document to one of: json, dot, svg, png, html, md.
With --layout the force simulation is run to a settled state first so
positional formats get stable coordinates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kerrors.ValidateExportFormat(format, exportFormats); err != nil {
				return err
			}

			store := workspace.NewStore()
			if err := store.Load(args[0]); err != nil {
				return err
			}
			g, _ := store.Snapshot()

			if runLayout {
				settle(&g, c.layoutConfig(0, 0))
			}

			if output == "" {
				base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
				output = base + "." + format
			}

			data, err := c.exportAs(cmd.Context(), store, g, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}

			printSuccess("Exported %s", format)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: "+strings.Join(exportFormats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input name with new extension)")
	cmd.Flags().BoolVar(&runLayout, "layout", false, "settle the force layout before exporting")

	return cmd
}

func (c *CLI) exportAs(ctx context.Context, store *workspace.Store, g graph.Graph, format string) ([]byte, error) {
	switch format {
	case "json":
		doc := store.Document()
		doc.Graph = g
		var buf bytes.Buffer
		if err := graph.WriteDocument(doc, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "dot":
		return []byte(render.ToDOT(g)), nil
	case "svg":
		return render.RenderSVG(ctx, render.ToDOT(g))
	case "png":
		return render.RenderPNG(ctx, render.ToDOT(g))
	case "html":
		return render.ToHTML(g, store.Topic())
	case "md":
		return []byte(render.ToMarkdown(g, store.Topic())), nil
	}
	return nil, kerrors.New(kerrors.ErrCodeUnsupported, "unsupported format %q", format)
}

// settle runs the simulation to rest and writes positions back.
func settle(g *graph.Graph, cfg layout.Config) {
	sim := layout.New(*g, cfg)
	for i := 0; i < settleSteps && sim.Step(); i++ {
	}
	sim.WriteBack(g)
}
