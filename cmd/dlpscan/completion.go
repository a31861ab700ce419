package dlpscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/types"
)

func init() {
	cmd := &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Print a shell completion script for dlpscan",
		Long: `Print a shell completion script for dlpscan.

Besides commands and flags, the script completes built-in info type names for
--info-types, likelihood levels for --min-likelihood and --fail-on, and levels
for --log-level. Info type names come from a local list, so completion works
without credentials or network access.`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell: %s", args[0])
		},
		Example: `  # current shell only
  source <(dlpscan completion bash)

  # install for every session
  dlpscan completion zsh > "${fpath[1]}/_dlpscan"
  dlpscan completion fish > ~/.config/fish/completions/dlpscan.fish`,
	}
	rootCmd.AddCommand(cmd)
}

// completeLikelihoods offers likelihood names, plus "none" when the flag
// accepts it.
func completeLikelihoods(withNone bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var out []string
		if withNone {
			out = append(out, "none")
		}
		for _, l := range types.Likelihoods() {
			out = append(out, l.String())
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

func completeLogLevels(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{"trace", "debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
}
