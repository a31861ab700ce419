package dlpscan

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagJSON       bool
	flagSARIF      bool
	flagTable      bool
	flagFailOn     string
	flagNoColor    bool
	flagProject    string
	flagLocation   string
	flagConfigFile string
	flagLogLevel   string
	flagTimeout    time.Duration

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the dlpscan CLI.
var rootCmd = &cobra.Command{
	Use:           "dlpscan",
	Short:         "Find sensitive data in text with Cloud DLP",
	Long:          "dlpscan sends text to the Cloud DLP inspect API using built-in info types or custom regex detectors and reports what it finds.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute runs the dlpscan CLI. It should be called by the main package.
// Errors exit with status 2; a tripped --fail-on gate exits with status 1.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	return 0
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().BoolVar(&flagTable, "table", false, "output in table format with borders")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when a finding is at or above this likelihood (none to disable)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "Google Cloud project id or projects/... parent")
	rootCmd.PersistentFlags().StringVar(&flagLocation, "location", "", "DLP processing location (e.g. global, europe-west1)")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (default .dlpscan.yml, then ~/.config/dlpscan/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "overall deadline for the command (0 = none)")

	_ = rootCmd.RegisterFlagCompletionFunc("fail-on", completeLikelihoods(true))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", completeLogLevels)
}
