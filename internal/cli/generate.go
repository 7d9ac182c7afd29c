package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// generateCommand creates the "generate" command: topic in, document out.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a concept graph for a topic",
		Long: `Generate asks the language model backend for an initial concept graph
covering the given topic and writes it to a document file. Grow it
afterwards with "knowdes view" or "knowdes expand".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]

			gen, err := c.newGenerator(cmd, noCache)
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Generating graph for %q...", topic))
			spinner.Start()

			frag, err := gen.Generate(cmd.Context(), generate.Request{Topic: topic})
			if err != nil {
				spinner.StopWithError(fmt.Sprintf("Generation failed: %v", err))
				return err
			}

			store := workspace.NewStore()
			g := store.Replace(topic, frag.Nodes, frag.Links)
			if err := store.Save(output); err != nil {
				spinner.StopWithError(fmt.Sprintf("Write failed: %v", err))
				return err
			}

			spinner.StopWithSuccess(fmt.Sprintf("Generated graph for %q", topic))
			printStats(len(g.Nodes), len(g.Links))
			printFile(output)
			printNextStep("View it", fmt.Sprintf("knowdes view %s", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "graph.json", "output document file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")

	return cmd
}
