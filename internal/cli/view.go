package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/MarkovWon/Knowdes/pkg/expand"
	"github.com/MarkovWon/Knowdes/pkg/workspace"
)

// viewCommand creates the "view" command: the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "View and grow a graph interactively",
		Long: `View opens a document in the terminal. Nodes settle under a force
layout; drag them to rearrange, click to select, and press "e" to
expand the selection with related concepts.

Keys:
  tab        switch between select and browse mode
  e          expand the selected nodes
  c          clear the selection
  w          write the document back to disk
  r          reheat the layout
  arrows     pan the viewport
  +/-        zoom
  esc        close the detail panel
  q          quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "graph.json"
			if len(args) > 0 {
				path = args[0]
			}

			store := workspace.NewStore()
			if err := store.Load(path); err != nil {
				return err
			}

			gen, err := c.newGenerator(cmd, noCache)
			if err != nil {
				return err
			}

			m := newGraphModel(c, store, expand.New(gen, c.Logger), gen, path)
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(cmd.Context()),
			)

			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the completion cache")

	return cmd
}
