package scanner

import (
	"context"
	"errors"
	"fmt"
)

// TransportError reports that an inspection could not be completed: network
// or auth failure, a service-side fault, an unreadable response, or
// cancellation. Err is the underlying cause.
type TransportError struct {
	Op         string
	StatusCode int // HTTP status when the service answered, else 0
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dlp %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("dlp %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConfigError reports an invalid request shape, detected locally before
// sending or by the service rejecting the request.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "invalid scan configuration"
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsConfig reports whether err is or wraps a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// classify makes sure whatever an Inspector returned surfaces as one of the
// two error kinds. Cancellation always wins so callers can errors.Is it.
func classify(ctx context.Context, err error) error {
	if IsTransport(err) || IsConfig(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return &TransportError{Op: "inspect", Err: fmt.Errorf("%w: %v", ctxErr, err)}
	}
	return &TransportError{Op: "inspect", Err: err}
}
