package scanner

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlpscan/dlpscan/internal/types"
)

// ParentResource converts a scope into the parent resource name the service
// bills against. A bare project id becomes "projects/<id>"; names already
// qualified with "projects/" or "organizations/" pass through. A non-empty
// location is appended unless the scope already names one.
func ParentResource(scope, location string) string {
	scope = strings.Trim(strings.TrimSpace(scope), "/")
	if scope == "" {
		return ""
	}
	parent := scope
	if !strings.HasPrefix(scope, "projects/") && !strings.HasPrefix(scope, "organizations/") {
		parent = "projects/" + scope
	}
	location = strings.TrimSpace(location)
	if location != "" && !strings.Contains(parent, "/locations/") {
		parent += "/locations/" + location
	}
	return parent
}

// BuildInspectRequest validates req and serializes it into the protocol
// shape. Detector order is preserved. All failures are *ConfigError.
func BuildInspectRequest(req types.ScanRequest) (InspectRequest, error) {
	parent := ParentResource(req.Scope, req.Location)
	if parent == "" {
		return InspectRequest{}, &ConfigError{Field: "scope", Reason: "project or parent resource is required"}
	}
	cfg := req.Config
	if len(cfg.Detectors) == 0 {
		return InspectRequest{}, &ConfigError{Field: "detectors", Reason: "at least one detector is required"}
	}
	if cfg.MinLikelihood != types.LikelihoodUnspecified && !cfg.MinLikelihood.Valid() {
		return InspectRequest{}, &ConfigError{Field: "min_likelihood", Reason: fmt.Sprintf("unknown likelihood %d", int(cfg.MinLikelihood))}
	}
	if cfg.MaxFindings < 0 {
		return InspectRequest{}, &ConfigError{Field: "max_findings", Reason: "must not be negative"}
	}

	out := InspectRequest{
		Parent: parent,
		InspectConfig: InspectConfig{
			IncludeQuote: cfg.IncludeQuote,
		},
		Item: ContentItem{Value: req.Text},
	}
	if cfg.MinLikelihood.Valid() {
		out.InspectConfig.MinLikelihood = cfg.MinLikelihood.String()
	}
	if cfg.MaxFindings > 0 {
		out.InspectConfig.Limits = &FindingLimits{MaxFindingsPerRequest: cfg.MaxFindings}
	}

	seen := make(map[string]bool, len(cfg.Detectors))
	for i, d := range cfg.Detectors {
		name := strings.TrimSpace(d.Name())
		field := fmt.Sprintf("detectors[%d]", i)
		if name == "" {
			return InspectRequest{}, &ConfigError{Field: field, Reason: "detector name is required"}
		}
		if seen[name] {
			return InspectRequest{}, &ConfigError{Field: field, Reason: fmt.Sprintf("detector %q listed twice", name)}
		}
		seen[name] = true

		if !d.IsCustom() {
			out.InspectConfig.InfoTypes = append(out.InspectConfig.InfoTypes, InfoType{Name: name})
			continue
		}
		if d.Pattern() == "" {
			return InspectRequest{}, &ConfigError{Field: field, Reason: fmt.Sprintf("custom detector %q has no pattern", name)}
		}
		if _, err := regexp.Compile(d.Pattern()); err != nil {
			return InspectRequest{}, &ConfigError{Field: field, Reason: fmt.Sprintf("custom detector %q has a malformed pattern", name), Err: err}
		}
		if !d.Likelihood().Valid() {
			return InspectRequest{}, &ConfigError{Field: field, Reason: fmt.Sprintf("custom detector %q needs a likelihood", name)}
		}
		out.InspectConfig.CustomInfoTypes = append(out.InspectConfig.CustomInfoTypes, CustomInfoType{
			InfoType:   InfoType{Name: name},
			Regex:      &Regex{Pattern: d.Pattern()},
			Likelihood: d.Likelihood().String(),
		})
	}
	return out, nil
}

// normalize converts the service response into findings, keeping service
// order. Findings under the requested threshold are dropped; nothing is
// sorted or deduplicated.
func normalize(resp InspectResponse, cfg types.ScanConfig) (types.Result, error) {
	res := types.Result{
		Findings:  make([]types.Finding, 0, len(resp.Result.Findings)),
		Truncated: resp.Result.FindingsTruncated,
	}
	for i, wf := range resp.Result.Findings {
		if wf.InfoType.Name == "" {
			return types.Result{}, &TransportError{Op: "decode", Err: fmt.Errorf("finding %d has no info type", i)}
		}
		lk, err := types.ParseLikelihood(wf.Likelihood)
		if err != nil || !lk.Valid() {
			return types.Result{}, &TransportError{Op: "decode", Err: fmt.Errorf("finding %d has likelihood %q", i, wf.Likelihood)}
		}
		if cfg.MinLikelihood.Valid() && !lk.AtLeast(cfg.MinLikelihood) {
			continue
		}

		f := types.Finding{InfoType: wf.InfoType.Name, Likelihood: lk}
		if cfg.IncludeQuote && wf.Quote != "" {
			q := wf.Quote
			f.Quote = &q
		}
		if wf.Location != nil && wf.Location.ByteRange != nil {
			f.Location = &types.ByteRange{Start: wf.Location.ByteRange.Start, End: wf.Location.ByteRange.End}
		}
		if wf.CreateTime != "" {
			if ts, err := time.Parse(time.RFC3339Nano, wf.CreateTime); err == nil {
				f.CreateTime = ts
			}
		}
		res.Findings = append(res.Findings, f)
	}
	return res, nil
}
