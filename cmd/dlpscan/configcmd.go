package dlpscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/files"
	"github.com/dlpscan/dlpscan/internal/report"
	"github.com/dlpscan/dlpscan/internal/types"
)

var (
	cfgOutput        string
	cfgInfoTypes     string
	cfgMinLikelihood string
	cfgExampleCustom bool
	cfgForce         bool
	cfgGitignore     bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .dlpscan.yml with a project, detectors and thresholds",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".dlpscan.yml", "output file path")
	initCmd.Flags().StringVar(&cfgInfoTypes, "info-types", "PHONE_NUMBER", "comma-separated built-in info types")
	initCmd.Flags().StringVar(&cfgMinLikelihood, "min-likelihood", "LIKELY", "minimum likelihood to report")
	initCmd.Flags().BoolVar(&cfgExampleCustom, "example-custom", false, "include the AADHAAR custom regex detector as an example")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().BoolVar(&cfgGitignore, "gitignore", false, "add dlpscan's local audit and cache files to .gitignore")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings with secrets masked",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	cfgCmd.AddCommand(showCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	lk, err := types.ParseLikelihood(cfgMinLikelihood)
	if err != nil {
		return fmt.Errorf("invalid --min-likelihood: %w", err)
	}

	fc := config.FileConfig{
		Project:       optStrPtr(strings.TrimSpace(flagProject)),
		InfoTypes:     optStrPtr(strings.Join(config.SplitList(cfgInfoTypes), ",")),
		MinLikelihood: &lk,
		IncludeQuote:  boolPtr(true),
	}
	if cfgExampleCustom {
		fc.Custom = []config.CustomDetector{{Name: "AADHAAR", Pattern: demoAadhaarRe, Likelihood: types.Possible}}
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)

	if cfgGitignore {
		for _, p := range files.LocalArtifacts() {
			if err := files.AppendIgnore(".", p); err != nil {
				return fmt.Errorf("failed to update .gitignore: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Updated .gitignore")
	}
	return nil
}

// settingsView is the printable form of config.Settings.
type settingsView struct {
	Project         string                  `yaml:"project"`
	Location        string                  `yaml:"location,omitempty"`
	Endpoint        string                  `yaml:"endpoint"`
	CredentialsFile string                  `yaml:"credentials_file,omitempty"`
	AccessToken     string                  `yaml:"access_token,omitempty"`
	APIKey          string                  `yaml:"api_key,omitempty"`
	InfoTypes       []string                `yaml:"info_types,omitempty"`
	MinLikelihood   string                  `yaml:"min_likelihood"`
	IncludeQuote    bool                    `yaml:"include_quote"`
	MaxFindings     int                     `yaml:"max_findings,omitempty"`
	Custom          []config.CustomDetector `yaml:"custom,omitempty"`
	FailOn          string                  `yaml:"fail_on,omitempty"`
	Audit           bool                    `yaml:"audit"`
	LogLevel        string                  `yaml:"log_level,omitempty"`
	Timeout         string                  `yaml:"timeout"`
	RetryCount      int                     `yaml:"retry_count"`
	Proxy           string                  `yaml:"proxy,omitempty"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(config.FileConfig{})
	if err != nil {
		return err
	}
	cfg := settingsView{
		Project:         s.Project,
		Location:        s.Location,
		Endpoint:        s.Endpoint,
		CredentialsFile: s.CredentialsFile,
		AccessToken:     maskSecret(s.AccessToken),
		APIKey:          maskSecret(s.APIKey),
		InfoTypes:       s.InfoTypes,
		MinLikelihood:   pickLikelihoodName(s.MinLikelihood, types.Likely),
		IncludeQuote:    s.IncludeQuote,
		MaxFindings:     s.MaxFindings,
		Custom:          s.Custom,
		Audit:           s.Audit,
		LogLevel:        s.LogLevel,
		Timeout:         s.Timeout.String(),
		RetryCount:      s.RetryCount,
		Proxy:           s.Proxy,
	}
	if s.FailOn.Valid() {
		cfg.FailOn = s.FailOn.String()
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return report.MaskValue(s)
}

func pickLikelihoodName(l, def types.Likelihood) string {
	if l.Valid() {
		return l.String()
	}
	return def.String()
}
