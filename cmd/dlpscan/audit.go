package dlpscan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/audit"
)

var (
	flagHistoryLog   string
	flagHistoryLimit int
)

func init() {
	auditCmd := &cobra.Command{Use: "audit", Short: "Inspect the local scan audit log"}
	rootCmd.AddCommand(auditCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scans, newest first",
		Args:  cobra.NoArgs,
		RunE:  runAuditHistory,
	}
	historyCmd.Flags().StringVar(&flagHistoryLog, "audit-log", audit.DefaultFile, "audit log path")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "show at most this many scans (0 = all)")
	auditCmd.AddCommand(historyCmd)
}

func runAuditHistory(cmd *cobra.Command, _ []string) error {
	records, err := audit.NewAuditLog(flagHistoryLog).LoadHistory()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No scans recorded.")
			return nil
		}
		return err
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		if records == nil {
			records = []audit.ScanRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No scans recorded.")
		return nil
	}
	table := tablewriter.NewWriter(out)
	table.Header("TIME", "SCAN ID", "SCOPE", "SOURCE", "FINDINGS", "NEW", "DURATION")
	for _, r := range records {
		_ = table.Append([]string{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.ScanID,
			r.Scope,
			r.Source,
			strconv.Itoa(r.TotalFindings),
			strconv.Itoa(r.NewFindings),
			r.Duration,
		})
	}
	return table.Render()
}
