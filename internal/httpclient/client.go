package httpclient

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// HclogAdapter adapts an hclog.Logger to be compatible with the resty log.Logger interface.
type HclogAdapter struct {
	logger hclog.Logger
}

// NewHclogAdapter creates a new adapter that will forward messages to a hclog.Logger.
func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

// Errorf logs a message at error level.
func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Warnf logs a message at warning level.
func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

// Debugf logs a message at debug level.
func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// Options configures the resty client. Zero values mean no retries, no
// timeout override, and proxy settings taken from the environment.
type Options struct {
	BaseURL            string
	Timeout            time.Duration
	RetryCount         int
	RetryWaitTime      time.Duration
	Proxy              string
	InsecureSkipVerify bool
	Debug              bool
}

// New builds a resty client for opts. When ts is non-nil every request is
// authorized with a bearer token from it.
func New(logger hclog.Logger, opts Options, ts oauth2.TokenSource) (*resty.Client, error) {
	base, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	var rt http.RoundTripper = base
	if ts != nil {
		rt = &oauth2.Transport{Source: ts, Base: base}
	}

	client := resty.NewWithClient(&http.Client{Transport: rt})
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}
	client.
		SetBaseURL(opts.BaseURL).
		SetDebug(opts.Debug).
		SetRetryCount(opts.RetryCount).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.RetryWaitTime > 0 {
		client.SetRetryWaitTime(opts.RetryWaitTime)
	}
	return client, nil
}

func newTransport(opts Options) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", opts.Proxy, err)
		}
		t.Proxy = http.ProxyURL(u)
	}
	if opts.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local emulators
	}
	return t, nil
}
