package dlp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/dlpscan/dlpscan/internal/scanner"
)

// Client implements scanner.Inspector against the Cloud DLP v2 REST API.
type Client struct {
	httpc  *resty.Client
	apiKey string
	logger hclog.Logger
}

// Options configures a Client. HTTP must already carry base URL, auth and
// timeouts; see httpclient.New.
type Options struct {
	HTTP   *resty.Client
	APIKey string
	Logger hclog.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.HTTP == nil {
		return nil, errors.New("dlp client requires an http client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{httpc: opts.HTTP, apiKey: opts.APIKey, logger: logger}, nil
}

var _ scanner.Inspector = (*Client)(nil)

// Inspect calls projects.content.inspect for req.Parent.
func (c *Client) Inspect(ctx context.Context, req scanner.InspectRequest) (scanner.InspectResponse, error) {
	var out scanner.InspectResponse
	var apiErr errorEnvelope

	path := "/v2/" + req.Parent + "/content:inspect"
	c.logger.Debug("POST content:inspect", "parent", req.Parent,
		"info_types", len(req.InspectConfig.InfoTypes), "custom_info_types", len(req.InspectConfig.CustomInfoTypes))

	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post(path)
	if err := checkResponse(ctx, "inspect", resp, err, apiErr); err != nil {
		return scanner.InspectResponse{}, err
	}
	c.logger.Debug("content:inspect done", "status", resp.StatusCode(),
		"findings", len(out.Result.Findings), "elapsed", resp.Time())
	return out, nil
}

// InfoTypeDescription describes one built-in info type.
type InfoTypeDescription struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Description string   `json:"description,omitempty"`
	SupportedBy []string `json:"supportedBy,omitempty"`
}

type listInfoTypesResponse struct {
	InfoTypes []InfoTypeDescription `json:"infoTypes"`
}

// ListInfoTypes returns the built-in info types the service knows about,
// with display text localized to languageCode when given.
func (c *Client) ListInfoTypes(ctx context.Context, languageCode string) ([]InfoTypeDescription, error) {
	var out listInfoTypesResponse
	var apiErr errorEnvelope

	r := c.request(ctx).SetResult(&out).SetError(&apiErr)
	if languageCode != "" {
		r.SetQueryParam("languageCode", languageCode)
	}
	resp, err := r.Get("/v2/infoTypes")
	if err := checkResponse(ctx, "list info types", resp, err, apiErr); err != nil {
		return nil, err
	}
	return out.InfoTypes, nil
}

// request starts a call whose body is always decoded as JSON, so a 2xx page
// from a proxy or a wrong endpoint fails to decode instead of reading as empty.
func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.httpc.R().SetContext(ctx).ForceContentType("application/json")
	if c.apiKey != "" {
		r.SetQueryParam("key", c.apiKey)
	}
	return r
}

// errorEnvelope is the google.rpc.Status wrapper returned on failures.
type errorEnvelope struct {
	Status apiStatus `json:"error"`
}

type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Statuses that mean the request itself is wrong rather than the call failing.
var configStatuses = map[string]bool{
	"INVALID_ARGUMENT":    true,
	"NOT_FOUND":           true,
	"FAILED_PRECONDITION": true,
	"OUT_OF_RANGE":        true,
}

func statusError(op string, resp *resty.Response, env errorEnvelope) error {
	code := resp.StatusCode()
	msg := strings.TrimSpace(env.Status.Message)
	if msg == "" {
		msg = http.StatusText(code)
	}
	status := env.Status.Status

	if configStatuses[status] || code == http.StatusBadRequest || code == http.StatusNotFound || code == http.StatusPreconditionFailed {
		if status == "" {
			status = http.StatusText(code)
		}
		return &scanner.ConfigError{
			Field:  "request",
			Reason: msg,
			Err:    fmt.Errorf("dlp %s rejected with %d %s", op, code, status),
		}
	}
	if status != "" {
		msg = status + ": " + msg
	}
	return &scanner.TransportError{Op: op, StatusCode: code, Err: errors.New(msg)}
}

// checkResponse maps a finished call onto the scanner error kinds. A response
// that arrived but could not be decoded is a decode TransportError, unless the
// status already says the call failed.
func checkResponse(ctx context.Context, op string, resp *resty.Response, err error, env errorEnvelope) error {
	received := resp != nil && resp.RawResponse != nil
	switch {
	case received && resp.IsError():
		return statusError(op, resp, env)
	case err != nil && received && ctx.Err() == nil:
		return &scanner.TransportError{Op: "decode", StatusCode: resp.StatusCode(),
			Err: fmt.Errorf("dlp %s: undecodable %q response: %w", op, resp.Header().Get("Content-Type"), err)}
	case err != nil:
		return transportError(ctx, op, err)
	}
	return nil
}

func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	return &scanner.TransportError{Op: op, Err: err}
}
