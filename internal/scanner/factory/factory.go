package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/httpclient"
	"github.com/dlpscan/dlpscan/internal/scanner"
	"github.com/dlpscan/dlpscan/internal/scanner/dlp"
	"github.com/dlpscan/dlpscan/internal/types"
)

// Scanner is a ready-to-use dispatcher plus the service client behind it.
type Scanner struct {
	*scanner.Dispatcher
	Client *dlp.Client
	// Project is the scope to bill scans to, falling back to the project in
	// the resolved credential when settings name none.
	Project string
}

// New creates a DLP-backed scanner from resolved settings. Credential
// problems are reported as *scanner.ConfigError.
func New(ctx context.Context, s config.Settings, logger hclog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	auth, err := dlp.Authenticate(ctx, dlp.Credentials{
		AccessToken:     s.AccessToken,
		CredentialsFile: s.CredentialsFile,
		APIKey:          s.APIKey,
	})
	if err != nil {
		return nil, &scanner.ConfigError{Field: "credentials", Err: err}
	}
	return newWithTokenSource(s, auth, logger)
}

func newWithTokenSource(s config.Settings, auth dlp.Auth, logger hclog.Logger) (*Scanner, error) {
	httpc, err := httpclient.New(logger.Named("http"), httpOptions(s), auth.TokenSource)
	if err != nil {
		return nil, &scanner.ConfigError{Field: "http", Err: err}
	}
	client, err := dlp.NewClient(dlp.Options{HTTP: httpc, APIKey: s.APIKey, Logger: logger.Named("dlp")})
	if err != nil {
		return nil, fmt.Errorf("failed to create dlp client: %w", err)
	}

	project := s.Project
	if project == "" {
		project = auth.ProjectID
	}
	return &Scanner{
		Dispatcher: scanner.NewDispatcher(client, logger.Named("scanner")),
		Client:     client,
		Project:    project,
	}, nil
}

// httpOptions maps settings onto the transport. Request and response dumps
// are only enabled at trace level since they carry the inspected text.
func httpOptions(s config.Settings) httpclient.Options {
	return httpclient.Options{
		BaseURL:            s.Endpoint,
		Timeout:            s.Timeout,
		RetryCount:         s.RetryCount,
		RetryWaitTime:      s.RetryWaitTime,
		Proxy:              s.Proxy,
		InsecureSkipVerify: s.InsecureSkipVerify,
		Debug:              strings.EqualFold(strings.TrimSpace(s.LogLevel), "trace"),
	}
}

// ScanConfig turns settings into the detector set and thresholds for a
// mixed scan: built-in info types plus every configured custom regex
// detector. PHONE_NUMBER is used only when neither kind is configured.
func ScanConfig(s config.Settings) types.ScanConfig {
	names := s.InfoTypes
	if len(names) == 0 && len(s.Custom) == 0 {
		names = scanner.DefaultInfoTypes
	}
	specs := make([]types.DetectorSpec, 0, len(names)+len(s.Custom))
	for _, n := range names {
		specs = append(specs, types.BuiltIn(n))
	}
	for _, c := range s.Custom {
		specs = append(specs, types.CustomRegex(c.Name, c.Pattern, c.Likelihood))
	}
	// An unset threshold never hides a configured custom detector's matches.
	threshold := s.MinLikelihood
	if threshold == types.LikelihoodUnspecified {
		threshold = scanner.DefaultMinLikelihood
		for _, c := range s.Custom {
			if c.Likelihood.Valid() && c.Likelihood < threshold {
				threshold = c.Likelihood
			}
		}
	}
	return types.ScanConfig{
		Detectors:     specs,
		MinLikelihood: threshold,
		IncludeQuote:  s.IncludeQuote,
		MaxFindings:   s.MaxFindings,
	}
}

// DefaultDetectors lists commonly used built-in info type names. It backs
// help text and shell completion without a network call.
func DefaultDetectors() []string {
	return []string{
		"PHONE_NUMBER", "EMAIL_ADDRESS", "CREDIT_CARD_NUMBER",
		"IBAN_CODE", "IP_ADDRESS", "MAC_ADDRESS",
		"PERSON_NAME", "STREET_ADDRESS", "DATE_OF_BIRTH",
		"PASSPORT", "US_SOCIAL_SECURITY_NUMBER", "US_DRIVERS_LICENSE_NUMBER",
		"INDIA_AADHAAR_INDIVIDUAL", "INDIA_PAN_INDIVIDUAL",
		"UK_NATIONAL_INSURANCE_NUMBER", "CANADA_SOCIAL_INSURANCE_NUMBER",
		"GCP_API_KEY", "GCP_CREDENTIALS", "AUTH_TOKEN", "JSON_WEB_TOKEN",
		"ENCRYPTION_KEY", "PASSWORD",
	}
}
