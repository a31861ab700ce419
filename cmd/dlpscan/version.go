package dlpscan

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the dlpscan version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dlpscan %s\n", buildVersion())
		},
	}
	rootCmd.AddCommand(cmd)
}

func buildVersion() string {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return v + " (" + s.Value[:7] + ")"
			}
		}
	}
	return v
}
