package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dlpscan/dlpscan/internal/types"
)

// FileConfig is the on-disk YAML configuration shape for dlpscan.
type FileConfig struct {
	Project         *string `yaml:"project,omitempty"`
	Location        *string `yaml:"location,omitempty"`
	CredentialsFile *string `yaml:"credentials_file,omitempty"`
	AccessToken     *string `yaml:"access_token,omitempty"`
	APIKey          *string `yaml:"api_key,omitempty"`
	Endpoint        *string `yaml:"endpoint,omitempty"`

	InfoTypes     *string           `yaml:"info_types,omitempty"`
	MinLikelihood *types.Likelihood `yaml:"min_likelihood,omitempty"`
	IncludeQuote  *bool             `yaml:"include_quote,omitempty"`
	MaxFindings   *int              `yaml:"max_findings,omitempty"`
	Custom        []CustomDetector  `yaml:"custom,omitempty"`
	FailOn        *types.Likelihood `yaml:"fail_on,omitempty"`
	Audit         *bool             `yaml:"audit,omitempty"`
	LogLevel      *string           `yaml:"log_level,omitempty"`
	HTTP          *HTTPConfig       `yaml:"http,omitempty"`
}

// CustomDetector is a regex info type declared in config.
type CustomDetector struct {
	Name       string           `yaml:"name"`
	Pattern    string           `yaml:"pattern"`
	Likelihood types.Likelihood `yaml:"likelihood"`
}

// HTTPConfig tunes the transport. Retries are off unless RetryCount is set.
type HTTPConfig struct {
	Timeout            *string `yaml:"timeout,omitempty"`
	RetryCount         *int    `yaml:"retry_count,omitempty"`
	RetryWaitTime      *string `yaml:"retry_wait_time,omitempty"`
	Proxy              *string `yaml:"proxy,omitempty"`
	InsecureSkipVerify *bool   `yaml:"insecure_skip_verify,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ErrNoConfig is returned by LoadLocal and LoadGlobal when there is no file
// to load. It matches fs.ErrNotExist.
var ErrNoConfig = fmt.Errorf("no config file: %w", fs.ErrNotExist)

// LoadLocal searches for a project-local config file in dir.
// It supports .dlpscan.yml/.yaml and dlpscan.yml/.yaml.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".dlpscan.yml", ".dlpscan.yaml", "dlpscan.yml", "dlpscan.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return loadFound(p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	return cfg, ErrNoConfig
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, ErrNoConfig
	}
	p := filepath.Join(base, "dlpscan", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return loadFound(p)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	return cfg, ErrNoConfig
}

// loadFound loads a file that is known to exist. Its errors never match
// fs.ErrNotExist, so callers skipping ErrNoConfig still see a broken file.
func loadFound(p string) (FileConfig, error) {
	cfg, err := LoadFile(p)
	if err != nil {
		return FileConfig{}, fmt.Errorf("%s: %v", p, err)
	}
	return cfg, nil
}

// LoadLayers returns the local config from dir and the global config. Missing
// files are empty layers; a file that exists but cannot be read or parsed is
// an error.
func LoadLayers(dir string) (local, global FileConfig, err error) {
	if local, err = LoadLocal(dir); err != nil && !errors.Is(err, ErrNoConfig) {
		return FileConfig{}, FileConfig{}, err
	}
	if global, err = LoadGlobal(); err != nil && !errors.Is(err, ErrNoConfig) {
		return FileConfig{}, FileConfig{}, err
	}
	return local, global, nil
}

// Settings is the fully resolved configuration handed to the scanner
// factory. Nothing here is read from process state after Resolve returns.
type Settings struct {
	Project         string
	Location        string
	CredentialsFile string
	AccessToken     string
	APIKey          string
	Endpoint        string

	InfoTypes     []string
	MinLikelihood types.Likelihood
	IncludeQuote  bool
	MaxFindings   int
	Custom        []CustomDetector
	FailOn        types.Likelihood
	Audit         bool
	LogLevel      string

	Timeout            time.Duration
	RetryCount         int
	RetryWaitTime      time.Duration
	Proxy              string
	InsecureSkipVerify bool
}

const (
	DefaultEndpoint = "https://dlp.googleapis.com"
	DefaultTimeout  = 30 * time.Second
)

// Resolve merges configuration layers. Earlier layers win: callers pass the
// CLI layer first, then local, then global. Environment variables fill
// anything still unset, and built-in defaults fill the rest.
func Resolve(layers ...FileConfig) Settings {
	s := Settings{
		Project:         firstString(layers, func(c FileConfig) *string { return c.Project }),
		Location:        firstString(layers, func(c FileConfig) *string { return c.Location }),
		CredentialsFile: firstString(layers, func(c FileConfig) *string { return c.CredentialsFile }),
		AccessToken:     firstString(layers, func(c FileConfig) *string { return c.AccessToken }),
		APIKey:          firstString(layers, func(c FileConfig) *string { return c.APIKey }),
		Endpoint:        firstString(layers, func(c FileConfig) *string { return c.Endpoint }),
		LogLevel:        firstString(layers, func(c FileConfig) *string { return c.LogLevel }),
		IncludeQuote:    true,
	}

	if v := firstString(layers, func(c FileConfig) *string { return c.InfoTypes }); v != "" {
		s.InfoTypes = SplitList(v)
	}
	for _, c := range layers {
		if c.MinLikelihood != nil && s.MinLikelihood == types.LikelihoodUnspecified {
			s.MinLikelihood = *c.MinLikelihood
		}
		if c.FailOn != nil && s.FailOn == types.LikelihoodUnspecified {
			s.FailOn = *c.FailOn
		}
		if len(c.Custom) > 0 && s.Custom == nil {
			s.Custom = c.Custom
		}
	}
	if b := firstBool(layers, func(c FileConfig) *bool { return c.IncludeQuote }); b != nil {
		s.IncludeQuote = *b
	}
	if b := firstBool(layers, func(c FileConfig) *bool { return c.Audit }); b != nil {
		s.Audit = *b
	}
	for _, c := range layers {
		if c.MaxFindings != nil {
			s.MaxFindings = *c.MaxFindings
			break
		}
	}

	var httpLayers []FileConfig
	for _, c := range layers {
		if c.HTTP != nil {
			httpLayers = append(httpLayers, c)
		}
	}
	s.Timeout = firstDuration(httpLayers, func(c FileConfig) *string { return c.HTTP.Timeout })
	s.RetryWaitTime = firstDuration(httpLayers, func(c FileConfig) *string { return c.HTTP.RetryWaitTime })
	s.Proxy = firstString(httpLayers, func(c FileConfig) *string { return c.HTTP.Proxy })
	for _, c := range httpLayers {
		if c.HTTP.RetryCount != nil {
			s.RetryCount = *c.HTTP.RetryCount
			break
		}
	}
	if b := firstBool(httpLayers, func(c FileConfig) *bool { return c.HTTP.InsecureSkipVerify }); b != nil {
		s.InsecureSkipVerify = *b
	}

	applyEnv(&s)

	if s.Endpoint == "" {
		s.Endpoint = DefaultEndpoint
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
	}
	return s
}

func applyEnv(s *Settings) {
	if s.Project == "" {
		s.Project = firstEnv("DLPSCAN_PROJECT", "GOOGLE_CLOUD_PROJECT")
	}
	if s.AccessToken == "" {
		s.AccessToken = os.Getenv("DLPSCAN_ACCESS_TOKEN")
	}
	if s.Endpoint == "" {
		s.Endpoint = os.Getenv("DLPSCAN_ENDPOINT")
	}
	if s.LogLevel == "" {
		s.LogLevel = os.Getenv("DLPSCAN_LOG_LEVEL")
	}
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func firstString(layers []FileConfig, get func(FileConfig) *string) string {
	for _, c := range layers {
		if p := get(c); p != nil && *p != "" {
			return *p
		}
	}
	return ""
}

func firstBool(layers []FileConfig, get func(FileConfig) *bool) *bool {
	for _, c := range layers {
		if p := get(c); p != nil {
			return p
		}
	}
	return nil
}

func firstDuration(layers []FileConfig, get func(FileConfig) *string) time.Duration {
	for _, c := range layers {
		if p := get(c); p != nil && *p != "" {
			if d, err := time.ParseDuration(*p); err == nil {
				return d
			}
		}
	}
	return 0
}
