package core

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/scanner"
	"github.com/dlpscan/dlpscan/internal/scanner/factory"
	"github.com/dlpscan/dlpscan/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Likelihood   = types.Likelihood
	DetectorSpec = types.DetectorSpec
	ScanConfig   = types.ScanConfig
	ScanRequest  = types.ScanRequest
	Finding      = types.Finding
	Result       = types.Result
	ByteRange    = types.ByteRange

	Settings   = config.Settings
	Inspector  = scanner.Inspector
	Dispatcher = scanner.Dispatcher

	TransportError = scanner.TransportError
	ConfigError    = scanner.ConfigError
)

const (
	VeryUnlikely = types.VeryUnlikely
	Unlikely     = types.Unlikely
	Possible     = types.Possible
	Likely       = types.Likely
	VeryLikely   = types.VeryLikely
)

// BuiltIn and CustomRegex construct detector specs.
func BuiltIn(name string) DetectorSpec { return types.BuiltIn(name) }

func CustomRegex(name, pattern string, likelihood Likelihood) DetectorSpec {
	return types.CustomRegex(name, pattern, likelihood)
}

// ParseLikelihood accepts names like "likely" or "VERY-LIKELY".
func ParseLikelihood(s string) (Likelihood, error) { return types.ParseLikelihood(s) }

// NewDispatcher returns a dispatcher over any Inspector, such as a test fake.
func NewDispatcher(in Inspector, logger hclog.Logger) *Dispatcher {
	return scanner.NewDispatcher(in, logger)
}

// NewScanner builds a dispatcher backed by the DLP REST API. Settings are
// usually produced by ResolveSettings.
func NewScanner(ctx context.Context, s Settings, logger hclog.Logger) (*factory.Scanner, error) {
	return factory.New(ctx, s, logger)
}

// ResolveSettings loads the local and global config files and applies the
// environment, the same way the CLI does without flags. Missing files are
// skipped; a file that cannot be parsed is returned as a ConfigError.
func ResolveSettings(dir string) (Settings, error) {
	local, global, err := config.LoadLayers(dir)
	if err != nil {
		return Settings{}, &scanner.ConfigError{Field: "config", Err: err}
	}
	return config.Resolve(local, global), nil
}

// ScanWithBuiltinDetectors is a convenience wrapper for the built-in path.
func ScanWithBuiltinDetectors(ctx context.Context, d *Dispatcher, scopeID, text string, infoTypes []string, minLikelihood Likelihood) (Result, error) {
	return d.ScanWithBuiltinDetectors(ctx, scopeID, text, infoTypes, minLikelihood)
}

// ScanWithCustomRegexDetector is a convenience wrapper for the single regex path.
func ScanWithCustomRegexDetector(ctx context.Context, d *Dispatcher, scopeID, text, name, pattern string, likelihood Likelihood) (Result, error) {
	return d.ScanWithCustomRegexDetector(ctx, scopeID, text, name, pattern, likelihood)
}

// IsTransport and IsConfig classify scan errors.
func IsTransport(err error) bool { return scanner.IsTransport(err) }

func IsConfig(err error) bool { return scanner.IsConfig(err) }
