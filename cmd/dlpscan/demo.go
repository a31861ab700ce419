package dlpscan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/report"
	"github.com/dlpscan/dlpscan/internal/types"
)

const (
	demoText        = "My aadhaar card number is 1111-1111-1111 . My phone number is 91-9876543210"
	demoAadhaarRe   = `[1-9]{4}-[1-9]{4}-[1-9]{4}`
	demoPhoneTitle  = "----EXTRACTION OF PHONE NUMBER BY INBUILT INFOTYPE ----"
	demoCustomTitle = "----EXTRACTION OF AADHAAR CARD NUMBER BY CUSTOM BUILT INFOTYPE ----"
)

func init() {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in and custom detector scans over a sample sentence",
		Long: fmt.Sprintf(`Runs two scans over the sample text
  %q
first with the built-in PHONE_NUMBER info type at LIKELY, then with a custom
AADHAAR regex detector %s at POSSIBLE.`, demoText, demoAadhaarRe),
		Args: cobra.NoArgs,
		RunE: runDemo,
	}
	rootCmd.AddCommand(cmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	sc, _, _, err := newScanner(ctx, config.FileConfig{})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, demoPhoneTitle)
	res, err := sc.ScanWithBuiltinDetectors(ctx, sc.Project, demoText, []string{"PHONE_NUMBER"}, types.Likely)
	if err != nil {
		return err
	}
	report.PrintText(out, res, report.PrintOptions{NoColor: flagNoColor})

	fmt.Fprintln(out, demoCustomTitle)
	res, err = sc.ScanWithCustomRegexDetector(ctx, sc.Project, demoText, "AADHAAR", demoAadhaarRe, types.Possible)
	if err != nil {
		return err
	}
	report.PrintText(out, res, report.PrintOptions{NoColor: flagNoColor})
	return nil
}
