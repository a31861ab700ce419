package types

import "time"

// DetectorKind distinguishes built-in info types from ad-hoc regex detectors.
type DetectorKind int

const (
	KindBuiltIn DetectorKind = iota
	KindCustomRegex
)

// DetectorSpec names one detector the inspection service should run. It is
// either a built-in info type (e.g. PHONE_NUMBER) or a custom regex detector
// carrying its own likelihood. Values are immutable; use BuiltIn or
// CustomRegex to construct them.
type DetectorSpec struct {
	kind       DetectorKind
	name       string
	pattern    string
	likelihood Likelihood
}

// BuiltIn returns a spec for a service-provided info type.
func BuiltIn(name string) DetectorSpec {
	return DetectorSpec{kind: KindBuiltIn, name: name}
}

// CustomRegex returns a spec for a regex detector reported under name.
func CustomRegex(name, pattern string, likelihood Likelihood) DetectorSpec {
	return DetectorSpec{kind: KindCustomRegex, name: name, pattern: pattern, likelihood: likelihood}
}

func (d DetectorSpec) Kind() DetectorKind     { return d.kind }
func (d DetectorSpec) Name() string           { return d.name }
func (d DetectorSpec) Pattern() string        { return d.pattern }
func (d DetectorSpec) Likelihood() Likelihood { return d.likelihood }
func (d DetectorSpec) IsCustom() bool         { return d.kind == KindCustomRegex }

// ScanConfig is the detector set plus the filtering applied to results.
type ScanConfig struct {
	Detectors     []DetectorSpec
	MinLikelihood Likelihood
	IncludeQuote  bool
	MaxFindings   int // 0 = service default
}

// DetectorNames returns the detector names in configuration order.
func (c ScanConfig) DetectorNames() []string {
	names := make([]string, 0, len(c.Detectors))
	for _, d := range c.Detectors {
		names = append(names, d.Name())
	}
	return names
}

// ScanRequest is one inspection of Text against Config, billed to Scope.
// Scope is either a bare project id or a full "projects/..." parent.
type ScanRequest struct {
	Scope    string
	Location string
	Config   ScanConfig
	Text     string
}

// ByteRange is a half-open [Start, End) offset into the inspected text.
type ByteRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Finding is one match reported by the inspection service. Quote is nil when
// quotes were not requested or the service withheld it.
type Finding struct {
	Quote      *string    `json:"quote,omitempty"`
	InfoType   string     `json:"info_type"`
	Likelihood Likelihood `json:"likelihood"`
	Location   *ByteRange `json:"location,omitempty"`
	CreateTime time.Time  `json:"create_time,omitzero"`
}

// QuoteOr returns the quote, or def when none was returned.
func (f Finding) QuoteOr(def string) string {
	if f.Quote == nil {
		return def
	}
	return *f.Quote
}

// Result is the normalized outcome of a successful scan. An empty Result is
// the "ran, nothing matched" state; failures are reported as errors instead.
type Result struct {
	Findings  []Finding `json:"findings"`
	Truncated bool      `json:"truncated,omitempty"`
}

// NoFindings reports whether the scan completed without any matches.
func (r Result) NoFindings() bool { return len(r.Findings) == 0 }
