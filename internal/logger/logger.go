package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// New returns a named hclog logger writing to stderr, so stdout stays free
// for reports. level wins over DLPSCAN_LOG_LEVEL; INFO is the fallback.
func New(name, level string) hclog.Logger {
	return NewWithOutput(name, level, os.Stderr)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(name, level string, out io.Writer) hclog.Logger {
	if level == "" {
		// env variables has the second priority
		level = os.Getenv("DLPSCAN_LOG_LEVEL")
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      out,
		Level:       getLogLevel(strings.ToUpper(level)),
	})
}

func getLogLevel(levelStr string) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.Info
	}
}
