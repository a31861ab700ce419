package report

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dlpscan/dlpscan/internal/types"
)

// DefaultBaselineFile is where `baseline update` writes when no path is given.
const DefaultBaselineFile = "dlpscan.baseline.json"

// Baseline is a set of accepted finding fingerprints. The file holds hashes
// rather than plain quotes, but the hash is unkeyed and fast, so short
// structured values (phone or ID numbers) can be recovered by brute force.
// Treat a baseline file as sensitive.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline file. A missing file yields an empty
// baseline and the os error, so callers can ignore fs.ErrNotExist.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, err
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, findings []types.Finding) error {
	b := Baseline{Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[Fingerprint(f)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}

// FilterNewFindings drops findings already present in base, keeping order.
func FilterNewFindings(findings []types.Finding, base Baseline) []types.Finding {
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		if !base.Items[Fingerprint(f)] {
			out = append(out, f)
		}
	}
	return out
}

// Fingerprint identifies a finding by info type and quote. Findings without
// a quote collapse to one fingerprint per info type. It is a matching key,
// not a one-way protection of the quote.
func Fingerprint(f types.Finding) string {
	d := xxhash.New()
	_, _ = d.WriteString(f.InfoType)
	_, _ = d.WriteString("|")
	if f.Quote != nil {
		_, _ = d.WriteString(*f.Quote)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// ParseFailOn parses a --fail-on value. "none" and "" disable the gate.
func ParseFailOn(s string) (types.Likelihood, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return types.LikelihoodUnspecified, nil
	}
	return types.ParseLikelihood(s)
}

// ShouldFail reports whether any finding is at or above failOn. An
// unspecified failOn never fails.
func ShouldFail(findings []types.Finding, failOn types.Likelihood) bool {
	if !failOn.Valid() {
		return false
	}
	for _, f := range findings {
		if f.Likelihood.AtLeast(failOn) {
			return true
		}
	}
	return false
}
