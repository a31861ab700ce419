package dlpscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/report"
	"github.com/dlpscan/dlpscan/internal/types"
)

var flagBaselineOut string

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [text...]",
		Short: "Update baseline from current scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			inputs, err := collectInputs(cmd, args)
			if err != nil {
				return err
			}
			ss, err := newScanSession(ctx, cmd)
			if err != nil {
				return err
			}
			var all []types.Finding
			for _, in := range inputs {
				res, err := ss.scan(ctx, in)
				if err != nil {
					return err
				}
				all = append(all, res.Findings...)
			}
			if err := report.SaveBaseline(flagBaselineOut, all); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated (%d findings).\n", len(all))
			return nil
		},
	}
	addScanFlags(update)
	update.Flags().StringVar(&flagBaselineOut, "output", report.DefaultBaselineFile, "baseline file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
