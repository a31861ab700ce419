package scanner

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/dlpscan/dlpscan/internal/types"
)

// Inspector is the capability that runs an inspection remotely. The DLP REST
// client implements it; tests substitute canned responses.
type Inspector interface {
	// Inspect sends one protocol-shaped request and returns the raw response.
	Inspect(ctx context.Context, req InspectRequest) (InspectResponse, error)
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(ctx context.Context, req InspectRequest) (InspectResponse, error)

func (f InspectorFunc) Inspect(ctx context.Context, req InspectRequest) (InspectResponse, error) {
	return f(ctx, req)
}

var (
	// DefaultInfoTypes is used when a built-in scan names no info types.
	DefaultInfoTypes = []string{"PHONE_NUMBER"}
	// DefaultMinLikelihood is used when a built-in scan names no threshold.
	DefaultMinLikelihood = types.Likely
)

// Dispatcher builds inspection requests, submits them through an Inspector,
// and normalizes the findings. It holds no per-scan state and is safe for
// concurrent use when its Inspector is.
type Dispatcher struct {
	inspector Inspector
	logger    hclog.Logger
}

// NewDispatcher returns a Dispatcher over in. A nil logger discards output.
func NewDispatcher(in Inspector, logger hclog.Logger) *Dispatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Dispatcher{inspector: in, logger: logger}
}

// ScanWithBuiltinDetectors inspects text for the named built-in info types,
// reporting findings at or above minLikelihood with quotes requested. Empty
// infoTypeNames defaults to PHONE_NUMBER and an unspecified threshold to LIKELY.
func (d *Dispatcher) ScanWithBuiltinDetectors(ctx context.Context, scopeID, text string, infoTypeNames []string, minLikelihood types.Likelihood) (types.Result, error) {
	if len(infoTypeNames) == 0 {
		infoTypeNames = DefaultInfoTypes
	}
	if minLikelihood == types.LikelihoodUnspecified {
		minLikelihood = DefaultMinLikelihood
	}
	specs := make([]types.DetectorSpec, 0, len(infoTypeNames))
	for _, name := range infoTypeNames {
		specs = append(specs, types.BuiltIn(strings.TrimSpace(name)))
	}
	return d.Scan(ctx, types.ScanRequest{
		Scope: scopeID,
		Text:  text,
		Config: types.ScanConfig{
			Detectors:     specs,
			MinLikelihood: minLikelihood,
			IncludeQuote:  true,
		},
	})
}

// ScanWithCustomRegexDetector inspects text with a single ad-hoc regex
// detector. Quotes are always requested, and the threshold is the detector's
// own likelihood so its matches are never filtered out.
func (d *Dispatcher) ScanWithCustomRegexDetector(ctx context.Context, scopeID, text, detectorName, pattern string, likelihood types.Likelihood) (types.Result, error) {
	return d.Scan(ctx, types.ScanRequest{
		Scope: scopeID,
		Text:  text,
		Config: types.ScanConfig{
			Detectors:     []types.DetectorSpec{types.CustomRegex(detectorName, pattern, likelihood)},
			MinLikelihood: likelihood,
			IncludeQuote:  true,
		},
	})
}

// Scan runs an arbitrary mix of built-in and custom detectors. A scan that
// completes with no matches returns an empty Result and a nil error.
func (d *Dispatcher) Scan(ctx context.Context, req types.ScanRequest) (types.Result, error) {
	wire, err := BuildInspectRequest(req)
	if err != nil {
		return types.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.Result{}, &TransportError{Op: "inspect", Err: err}
	}

	names := strings.Join(req.Config.DetectorNames(), ",")
	d.logger.Debug("inspecting content", "parent", wire.Parent, "detectors", names,
		"min_likelihood", req.Config.MinLikelihood.String(), "bytes", len(req.Text))

	start := time.Now()
	resp, err := d.inspector.Inspect(ctx, wire)
	if err != nil {
		err = classify(ctx, err)
		d.logger.Debug("inspection failed", "parent", wire.Parent, "error", err)
		return types.Result{}, err
	}

	res, err := normalize(resp, req.Config)
	if err != nil {
		return types.Result{}, err
	}
	d.logger.Debug("inspection complete", "parent", wire.Parent, "findings", len(res.Findings),
		"truncated", res.Truncated, "duration", time.Since(start))
	return res, nil
}
