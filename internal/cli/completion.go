package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the shell-completion generator.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell.

Bash:
  $ source <(knowdes completion bash)
  # or install permanently:
  $ knowdes completion bash > /etc/bash_completion.d/knowdes

Zsh (compinit must be enabled):
  $ knowdes completion zsh > "${fpath[1]}/_knowdes"

Fish:
  $ knowdes completion fish > ~/.config/fish/completions/knowdes.fish

PowerShell:
  PS> knowdes completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
