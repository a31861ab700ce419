package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/dlpscan/dlpscan/internal/types"
)

type PrintOptions struct {
	NoColor  bool
	Mask     bool
	Duration time.Duration
	// Header is printed above the findings when set.
	Header string
}

// PrintText writes each finding as Quote, Info type and Likelihood lines.
// The Quote line is omitted when the finding carries none.
func PrintText(w io.Writer, res types.Result, opts PrintOptions) {
	if opts.Header != "" {
		fmt.Fprintln(w, opts.Header)
	}
	if res.NoFindings() {
		fmt.Fprintln(w, "No findings.")
	}
	for _, f := range res.Findings {
		if f.Quote != nil {
			fmt.Fprintf(w, "Quote: %s\n", quote(f, opts.Mask))
		}
		fmt.Fprintf(w, "Info type: %s\n", f.InfoType)
		fmt.Fprintf(w, "Likelihood: %s\n", f.Likelihood)
	}
	printFooter(w, res, opts)
}

// PrintTable renders findings as a bordered table. Likelihood is colored
// only when color is allowed and w is a terminal.
func PrintTable(w io.Writer, res types.Result, opts PrintOptions) {
	if opts.Header != "" {
		fmt.Fprintln(w, opts.Header)
	}
	if res.NoFindings() {
		fmt.Fprintln(w, "No findings.")
		printFooter(w, res, opts)
		return
	}
	color := !opts.NoColor && isTerminal(w)

	table := tablewriter.NewWriter(w)
	table.Header("LIKELIHOOD", "INFO TYPE", "QUOTE", "OFFSET")
	for _, f := range res.Findings {
		lk := f.Likelihood.String()
		if color {
			lk = colorLikelihood(f.Likelihood)
		}
		_ = table.Append([]string{lk, f.InfoType, quote(f, opts.Mask), offset(f)})
	}
	_ = table.Render()
	printFooter(w, res, opts)
}

// WriteJSON writes the findings array. An empty result encodes as [].
func WriteJSON(w io.Writer, res types.Result) error {
	findings := res.Findings
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

func printFooter(w io.Writer, res types.Result, opts PrintOptions) {
	if res.Truncated {
		fmt.Fprintln(w, "Warning: the service truncated the findings list; raise max_findings or split the input.")
	}
	if opts.Duration > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Findings: %d\n", len(res.Findings))
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
}

func quote(f types.Finding, mask bool) string {
	if f.Quote == nil {
		return ""
	}
	if mask {
		return MaskValue(*f.Quote)
	}
	return *f.Quote
}

func offset(f types.Finding) string {
	if f.Location == nil {
		return ""
	}
	return strconv.FormatInt(f.Location.Start, 10) + "-" + strconv.FormatInt(f.Location.End, 10)
}

// MaskValue keeps just enough of a quote to recognize it.
func MaskValue(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:2]) + "…" + string(r[len(r)-2:])
}

var (
	highStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	medStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

func colorLikelihood(l types.Likelihood) string {
	switch {
	case l.AtLeast(types.Likely):
		return highStyle.Render(l.String())
	case l == types.Possible:
		return medStyle.Render(l.String())
	default:
		return lowStyle.Render(l.String())
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
