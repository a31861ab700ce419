package dlpscan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/types"
)

var (
	flagLanguage string
	flagFilter   string
)

func init() {
	cmd := &cobra.Command{
		Use:   "infotypes",
		Short: "List the built-in info types known to the DLP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			sc, _, _, err := newScanner(ctx, config.FileConfig{})
			if err != nil {
				return err
			}
			list, err := sc.Client.ListInfoTypes(ctx, flagLanguage)
			if err != nil {
				return err
			}
			if f := strings.ToUpper(strings.TrimSpace(flagFilter)); f != "" {
				kept := list[:0]
				for _, it := range list {
					if strings.Contains(it.Name, f) || strings.Contains(strings.ToUpper(it.DisplayName), f) {
						kept = append(kept, it)
					}
				}
				list = kept
			}
			sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			table := tablewriter.NewWriter(out)
			table.Header("NAME", "DISPLAY NAME", "SUPPORTED BY")
			for _, it := range list {
				_ = table.Append([]string{it.Name, it.DisplayName, strings.Join(it.SupportedBy, ",")})
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&flagLanguage, "language", "", "BCP-47 language code for display names (e.g. en-US)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "only show info types whose name contains this text")
	rootCmd.AddCommand(cmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "likelihoods",
		Short: "List likelihood levels from least to most likely",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, l := range types.Likelihoods() {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
		},
	})
}
