// ABOUTME: AI backend abstraction for the decision engine
// ABOUTME: Defines the Provider interface, request/response types, and transport error kinds
package decision

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider is a text completion backend.
type Provider interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Request is one completion call.
type Request struct {
	Prompt       string
	SystemPrompt string
	// Hints carry routing information a backend may use, such as the
	// decision type or the expected response format.
	Hints map[string]string
}

// Hint keys.
const (
	HintKind   = "kind"
	HintFormat = "format"
	FormatJSON = "json"
)

// Response is the raw backend output.
type Response struct {
	Text         string
	Latency      time.Duration
	CostEstimate float64
}

// ErrorKind classifies transport failures.
type ErrorKind string

const (
	KindRateLimit   ErrorKind = "rate_limit"
	KindTimeout     ErrorKind = "timeout"
	KindServerError ErrorKind = "server_error"
	KindOther       ErrorKind = "other"
)

// TransportError is a failure to get any answer from the backend, as opposed
// to an answer that could not be parsed.
type TransportError struct {
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying: rate limits, timeouts,
// and 5xx responses.
func IsTransient(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Kind {
	case KindRateLimit, KindTimeout, KindServerError:
		return true
	}
	return false
}

// KindFromStatus maps an HTTP status code onto an error kind.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimit
	case status == 408 || status == 504:
		return KindTimeout
	case status >= 500:
		return KindServerError
	}
	return KindOther
}
