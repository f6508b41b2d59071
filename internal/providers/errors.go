package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrAuth          = errors.New("authentication error")
	ErrTimeout       = errors.New("request timed out")
	ErrEmptyResponse = errors.New("empty text content in API response")
)

// APIError is a non-200 response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap exposes the sentinel matching the status code, if any.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 429:
		return ErrRateLimited
	case 401, 403:
		return ErrAuth
	case 408, 504:
		return ErrTimeout
	default:
		return nil
	}
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// ErrorKind is a coarse classification of a provider failure.
type ErrorKind string

const (
	KindTimeoutError   ErrorKind = "timeout"
	KindRateLimitError ErrorKind = "rate_limit"
	KindAuthError      ErrorKind = "auth"
	KindMalformedError ErrorKind = "malformed"
	KindCanceledError  ErrorKind = "canceled"
	KindTransportError ErrorKind = "transport"
)

// Classify maps an error onto an ErrorKind, using the error chain first and
// the message text second.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeoutError
	case errors.Is(err, context.Canceled):
		return KindCanceledError
	case errors.Is(err, ErrRateLimited):
		return KindRateLimitError
	case errors.Is(err, ErrAuth):
		return KindAuthError
	case errors.Is(err, ErrEmptyResponse):
		return KindMalformedError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeoutError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeoutError
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return KindRateLimitError
	case strings.Contains(msg, "parsing response"), strings.Contains(msg, "no content"), strings.Contains(msg, "no choices"):
		return KindMalformedError
	default:
		return KindTransportError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
