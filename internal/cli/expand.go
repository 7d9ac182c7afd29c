package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarkovWon/Knowdes/pkg/expand"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// expandCommand creates the "expand" command: non-interactive expansion of
// named nodes in an existing document.
func (c *CLI) expandCommand() *cobra.Command {
	var (
		nodes   []string
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Expand selected nodes of an existing graph",
		Long: `Expand selects the named nodes and asks the backend for concepts related
to them. New nodes and links are merged in; everything already present
is kept untouched. The document is written back in place unless
--output names a different file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if output == "" {
				output = path
			}

			store := workspace.NewStore()
			if err := store.Load(path); err != nil {
				return err
			}

			g, _ := store.Snapshot()
			for _, id := range nodes {
				if !g.HasNode(id) {
					printWarning("No node %q in the graph, skipping", id)
					continue
				}
				store.ToggleSelection(id)
			}
			if len(store.SelectedIDs()) == 0 {
				printInfo("Nothing to expand: none of the given nodes exist")
				printNextStep("List nodes", fmt.Sprintf("knowdes export %s --format md", path))
				return nil
			}

			gen, err := c.newGenerator(cmd, noCache)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Expanding selection...")
			spinner.Start()

			res, err := expand.New(gen, c.Logger).Expand(cmd.Context(), store)
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Expansion failed: %v", err))
				return err
			}

			if err := store.Save(output); err != nil {
				spinner.StopWithError(fmt.Sprintf("Write failed: %v", err))
				return err
			}

			spinner.StopWithSuccess(fmt.Sprintf("Added %d nodes, %d links", len(res.AddedNodes), res.AddedLinks))
			if res.DroppedLinks > 0 {
				printDetail("%d malformed links dropped", res.DroppedLinks)
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&nodes, "node", "n", nil, "node id to expand (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output document file (default: in place)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}
