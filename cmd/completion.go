package cmd

import (
	"github.com/spf13/cobra"
)

// newCompletionCmd creates the shell completion command for root.
func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for rq.

To load completions:

Bash:
  $ source <(rq completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ rq completion bash > /etc/bash_completion.d/rq
  # macOS:
  $ rq completion bash > $(brew --prefix)/etc/bash_completion.d/rq

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ rq completion zsh > "${fpath[1]}/_rq"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ rq completion fish | source

  # To load completions for each session, execute once:
  $ rq completion fish > ~/.config/fish/completions/rq.fish

PowerShell:
  PS> rq completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> rq completion powershell > rq.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
