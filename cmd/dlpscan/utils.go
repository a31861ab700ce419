package dlpscan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/dlpscan/dlpscan/internal/config"
	"github.com/dlpscan/dlpscan/internal/logger"
	"github.com/dlpscan/dlpscan/internal/report"
	"github.com/dlpscan/dlpscan/internal/scanner"
	"github.com/dlpscan/dlpscan/internal/scanner/factory"
	"github.com/dlpscan/dlpscan/internal/types"
)

// loadConfigs returns the file layers in precedence order: an explicit
// --config file replaces the local one, and the global file comes last.
// Missing files are skipped; a file that exists but does not parse is a
// ConfigError.
func loadConfigs() (local, global config.FileConfig, err error) {
	if flagConfigFile == "" {
		if local, global, err = config.LoadLayers("."); err != nil {
			return local, global, &scanner.ConfigError{Field: "config", Err: err}
		}
		return local, global, nil
	}
	if local, err = config.LoadFile(flagConfigFile); err != nil {
		return local, global, &scanner.ConfigError{Field: "config", Reason: "failed to load " + flagConfigFile, Err: err}
	}
	if global, err = config.LoadGlobal(); err != nil && !errors.Is(err, config.ErrNoConfig) {
		return local, global, &scanner.ConfigError{Field: "config", Err: err}
	}
	return local, global, nil
}

// resolveSettings merges CLI > local > global > env > defaults.
func resolveSettings(cli config.FileConfig) (config.Settings, error) {
	local, global, err := loadConfigs()
	if err != nil {
		return config.Settings{}, err
	}
	cli.Project = pickString(flagProject, cli.Project)
	cli.Location = pickString(flagLocation, cli.Location)
	cli.LogLevel = pickString(flagLogLevel, cli.LogLevel)
	s := config.Resolve(cli, local, global)

	if flagFailOn != "" {
		lk, err := report.ParseFailOn(flagFailOn)
		if err != nil {
			return s, fmt.Errorf("invalid --fail-on: %w", err)
		}
		s.FailOn = lk
	}
	return s, nil
}

func newLogger(s config.Settings) hclog.Logger {
	return logger.New("dlpscan", s.LogLevel)
}

// newScanner resolves settings and builds the DLP-backed scanner.
func newScanner(ctx context.Context, cli config.FileConfig) (*factory.Scanner, config.Settings, hclog.Logger, error) {
	s, err := resolveSettings(cli)
	if err != nil {
		return nil, s, nil, err
	}
	log := newLogger(s)
	sc, err := factory.New(ctx, s, log)
	if err != nil {
		return nil, s, log, err
	}
	log.Debug("scanner ready", "project", sc.Project, "endpoint", s.Endpoint)
	return sc, s, log, nil
}

// commandContext is cancelled on SIGINT/SIGTERM and after --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if flagTimeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, flagTimeout)
	return tctx, func() { cancel(); stop() }
}

func pickString(cli string, layer *string) *string {
	if cli != "" {
		return &cli
	}
	return layer
}

func pickInt(cli int, changed bool) *int {
	if !changed {
		return nil
	}
	return &cli
}

func pickLikelihood(cli string) (*types.Likelihood, error) {
	if cli == "" {
		return nil, nil
	}
	lk, err := types.ParseLikelihood(cli)
	if err != nil {
		return nil, err
	}
	return &lk, nil
}

func optStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
func boolPtr(v bool) *bool { return &v }
