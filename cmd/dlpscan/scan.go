package dlpscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/audit"
	"github.com/dlpscan/dlpscan/internal/cache"
	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/ignore"
	"github.com/dlpscan/dlpscan/internal/redact"
	"github.com/dlpscan/dlpscan/internal/report"
	"github.com/dlpscan/dlpscan/internal/scanner/factory"
	"github.com/dlpscan/dlpscan/internal/types"
)

var (
	flagFiles         []string
	flagInfoTypes     string
	flagMinLikelihood string
	flagCustom        []string
	flagNoQuote       bool
	flagMaxFindings   int
	flagMask          bool
	flagBaseline      string
	flagAudit         bool
	flagAuditLog      string
	flagRedact        bool
	flagCache         bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [text...]",
		Short: "Inspect text for sensitive data",
		Long: `Inspect text for sensitive data using built-in info types and/or custom
regex detectors. Text comes from the arguments, from --file globs, or from stdin.`,
		Example: `  dlpscan scan "My phone number is 91-9876543210"
  dlpscan scan --info-types PHONE_NUMBER,EMAIL_ADDRESS --min-likelihood possible --file 'logs/**/*.log'
  echo "1111-1111-1111" | dlpscan scan --custom 'AADHAAR=[1-9]{4}-[1-9]{4}-[1-9]{4}@possible'
  dlpscan scan --redact --file notes.txt`,
		RunE: runScan,
	}
	rootCmd.AddCommand(cmd)
	addScanFlags(cmd)

	cmd.Flags().BoolVar(&flagMask, "mask", false, "mask quotes in text and table output")
	cmd.Flags().StringVar(&flagBaseline, "baseline", report.DefaultBaselineFile, "baseline file of accepted findings")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a record of this scan to the audit log")
	cmd.Flags().StringVar(&flagAuditLog, "audit-log", audit.DefaultFile, "audit log path")
	cmd.Flags().BoolVar(&flagRedact, "redact", false, "print the input with located findings replaced by [INFO_TYPE]")
	cmd.Flags().BoolVar(&flagCache, "cache", false, "reuse results for unchanged inputs from the local scan cache")
}

// addScanFlags registers the input and detector flags shared by scan and
// baseline update.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&flagFiles, "file", "f", nil, "read input from files matching this glob (repeatable, ** supported)")
	cmd.Flags().StringVar(&flagInfoTypes, "info-types", "", "comma-separated built-in info types (default PHONE_NUMBER)")
	cmd.Flags().StringVar(&flagMinLikelihood, "min-likelihood", "", "minimum likelihood to report (default LIKELY)")
	cmd.Flags().StringArrayVar(&flagCustom, "custom", nil, "custom regex detector NAME=PATTERN[@LIKELIHOOD] (repeatable)")
	cmd.Flags().BoolVar(&flagNoQuote, "no-quote", false, "do not request matched text from the service")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "maximum findings per request (0 = service default)")
	_ = cmd.RegisterFlagCompletionFunc("info-types", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return factory.DefaultDetectors(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("min-likelihood", completeLikelihoods(false))
}

type input struct {
	name string
	text string
}

// scanSession is one resolved scanner plus the detector config every input
// is scanned with.
type scanSession struct {
	sc       *factory.Scanner
	settings config.Settings
	log      hclog.Logger
	cfg      types.ScanConfig
}

func newScanSession(ctx context.Context, cmd *cobra.Command) (*scanSession, error) {
	cli, err := scanFlagsLayer(cmd)
	if err != nil {
		return nil, err
	}
	sc, s, log, err := newScanner(ctx, cli)
	if err != nil {
		return nil, err
	}
	// --custom alone means custom detectors only.
	if len(flagCustom) > 0 && !cmd.Flags().Changed("info-types") {
		s.InfoTypes = nil
	}
	return &scanSession{sc: sc, settings: s, log: log, cfg: factory.ScanConfig(s)}, nil
}

func (ss *scanSession) scan(ctx context.Context, in input) (types.Result, error) {
	res, err := ss.sc.Scan(ctx, types.ScanRequest{
		Scope:    ss.sc.Project,
		Location: ss.settings.Location,
		Config:   ss.cfg,
		Text:     in.text,
	})
	if err != nil {
		return types.Result{}, fmt.Errorf("%s: %w", in.name, err)
	}
	return res, nil
}

// cachedScan consults db first when it is non-nil and records fresh results.
func (ss *scanSession) cachedScan(ctx context.Context, db cache.DB, in input) (types.Result, error) {
	if db.Entries == nil {
		return ss.scan(ctx, in)
	}
	key := cache.Key(cache.Target{
		Scope:    ss.sc.Project,
		Location: ss.settings.Location,
		Endpoint: ss.settings.Endpoint,
	}, ss.cfg, in.text)
	if res, ok := db.Lookup(in.name, key); ok {
		ss.log.Debug("cache hit", "input", in.name)
		return res, nil
	}
	res, err := ss.scan(ctx, in)
	if err != nil {
		return types.Result{}, err
	}
	db.Put(in.name, key, res)
	return res, nil
}

func scanFlagsLayer(cmd *cobra.Command) (config.FileConfig, error) {
	var cli config.FileConfig
	cli.InfoTypes = optStrPtr(strings.TrimSpace(flagInfoTypes))
	lk, err := pickLikelihood(flagMinLikelihood)
	if err != nil {
		return cli, fmt.Errorf("invalid --min-likelihood: %w", err)
	}
	cli.MinLikelihood = lk
	if flagNoQuote {
		cli.IncludeQuote = boolPtr(false)
	}
	cli.MaxFindings = pickInt(flagMaxFindings, cmd.Flags().Changed("max-findings"))
	for _, v := range flagCustom {
		d, err := parseCustom(v)
		if err != nil {
			return cli, err
		}
		cli.Custom = append(cli.Custom, d)
	}
	if flagAudit {
		cli.Audit = boolPtr(true)
	}
	return cli, nil
}

// parseCustom parses NAME=PATTERN[@LIKELIHOOD]. A trailing @word is taken as
// the likelihood only when it names one; otherwise it stays in the pattern.
func parseCustom(v string) (config.CustomDetector, error) {
	name, pattern, ok := strings.Cut(v, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || pattern == "" {
		return config.CustomDetector{}, fmt.Errorf("invalid --custom %q: want NAME=PATTERN[@LIKELIHOOD]", v)
	}
	lk := types.Possible
	if i := strings.LastIndex(pattern, "@"); i >= 0 {
		if parsed, err := types.ParseLikelihood(pattern[i+1:]); err == nil {
			lk = parsed
			pattern = pattern[:i]
		}
	}
	return config.CustomDetector{Name: name, Pattern: pattern, Likelihood: lk}, nil
}

func collectInputs(cmd *cobra.Command, args []string) ([]input, error) {
	if len(args) > 0 {
		return []input{{name: "args", text: strings.Join(args, " ")}}, nil
	}
	if len(flagFiles) > 0 {
		var out []input
		seen := map[string]bool{}
		ign, err := ignore.Load(ignore.FileName)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", ignore.FileName, err)
		}
		for _, pattern := range flagFiles {
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid --file pattern %q: %w", pattern, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", pattern)
			}
			for _, m := range matches {
				if seen[m] {
					continue
				}
				seen[m] = true
				if ign.Match(m) {
					continue
				}
				if st, err := os.Stat(m); err != nil || st.IsDir() {
					continue
				}
				b, err := os.ReadFile(m)
				if err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", m, err)
				}
				out = append(out, input{name: m, text: string(b)})
			}
		}
		return out, nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return []input{{name: "stdin", text: string(b)}}, nil
}

func runScan(cmd *cobra.Command, args []string) error {
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

	baseline, err := report.LoadBaseline(flagBaseline)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		ss.log.Warn("ignoring unreadable baseline", "path", flagBaseline, "error", err)
	}

	var db cache.DB
	if flagCache {
		if db, err = cache.Load("."); err != nil && !errors.Is(err, fs.ErrNotExist) {
			ss.log.Warn("ignoring unreadable scan cache", "error", err)
		}
	}

	start := time.Now()
	var results []report.Input
	var newFindings []types.Finding
	var redacted []string
	for _, in := range inputs {
		t0 := time.Now()
		res, err := ss.cachedScan(ctx, db, in)
		if err != nil {
			return err
		}
		if flagRedact {
			out, _ := redact.Text(in.text, res.Findings)
			redacted = append(redacted, out)
		}
		fresh := report.FilterNewFindings(res.Findings, baseline)
		newFindings = append(newFindings, fresh...)
		results = append(results, report.Input{URI: in.name, Result: types.Result{Findings: fresh, Truncated: res.Truncated}})

		if ss.settings.Audit {
			rec := audit.CreateScanRecord(ss.sc.Project, in.name, ss.cfg, res, fresh, time.Since(t0), flagBaseline)
			if err := audit.NewAuditLog(flagAuditLog).LogScan(rec); err != nil {
				ss.log.Warn("failed to write audit record", "error", err)
			}
		}
	}

	if flagCache {
		if err := cache.Save(".", db); err != nil {
			ss.log.Warn("failed to write scan cache", "error", err)
		}
	}

	if flagRedact {
		writeRedacted(cmd.OutOrStdout(), inputs, redacted)
	} else if err := writeResults(cmd.OutOrStdout(), results, time.Since(start)); err != nil {
		return err
	}

	if report.ShouldFail(newFindings, ss.settings.FailOn) {
		return &exitError{code: 1, msg: "findings at or above " + ss.settings.FailOn.String()}
	}
	return nil
}

func writeResults(w io.Writer, results []report.Input, elapsed time.Duration) error {
	switch {
	case flagSARIF:
		if err := report.WriteSARIF(w, results...); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		var all types.Result
		for _, r := range results {
			all.Findings = append(all.Findings, r.Result.Findings...)
		}
		return report.WriteJSON(w, all)
	default:
		for _, r := range results {
			opts := report.PrintOptions{NoColor: flagNoColor, Mask: flagMask}
			if len(results) > 1 {
				opts.Header = "== " + r.URI + " =="
			}
			if flagTable {
				if len(results) == 1 {
					opts.Duration = elapsed
				}
				report.PrintTable(w, r.Result, opts)
				continue
			}
			report.PrintText(w, r.Result, opts)
		}
	}
	return nil
}

func writeRedacted(w io.Writer, inputs []input, redacted []string) {
	for i, out := range redacted {
		if len(inputs) > 1 {
			fmt.Fprintf(w, "== %s ==\n", inputs[i].name)
		}
		fmt.Fprint(w, out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(w)
		}
	}
}
