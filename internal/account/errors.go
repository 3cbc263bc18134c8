package account

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorKind represents the category of error that occurred while talking to
// the platform.
type ErrorKind int

const (
	// ErrKindNetwork indicates a network-level error (connection refused, unreachable, etc.)
	ErrKindNetwork ErrorKind = iota
	// ErrKindTimeout indicates a request timeout
	ErrKindTimeout
	// ErrKindAuth indicates an authentication or session failure (401/403)
	ErrKindAuth
	// ErrKindHTTP indicates an HTTP-level error (unexpected status code)
	ErrKindHTTP
	// ErrKindParse indicates a parsing error (malformed JSON in a response)
	ErrKindParse
	// ErrKindValidation indicates the platform rejected the submitted value
	ErrKindValidation
	// ErrKindUnknown indicates an unknown or unexpected error
	ErrKindUnknown
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNetwork:
		return "Network Error"
	case ErrKindTimeout:
		return "Timeout"
	case ErrKindAuth:
		return "Authentication Error"
	case ErrKindHTTP:
		return "HTTP Error"
	case ErrKindParse:
		return "Parse Error"
	case ErrKindValidation:
		return "Validation Error"
	case ErrKindUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// RequestError represents a failed request to the platform.
type RequestError struct {
	Kind         ErrorKind // Category of error
	Message      string    // Human-readable error message
	StatusCode   int       // HTTP status code (if applicable)
	FieldMessage string    // Per-field user message from a 400 field_errors body
	Err          error     // Underlying error (if any)
	Retryable    bool      // Whether the request may succeed if retried
}

// Error implements the error interface
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *RequestError) Unwrap() error {
	return e.Err
}

// ClassifyTransportError analyzes a transport-level error from net/http and
// returns a RequestError with a more specific kind.
func ClassifyTransportError(err error) *RequestError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &RequestError{
			Kind:      ErrKindTimeout,
			Message:   "request timed out",
			Err:       err,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &RequestError{
			Kind:      ErrKindNetwork,
			Message:   fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:       err,
			Retryable: false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &RequestError{
				Kind:      ErrKindNetwork,
				Message:   "platform refused connection",
				Err:       err,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) || errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &RequestError{
				Kind:      ErrKindNetwork,
				Message:   "platform unreachable",
				Err:       err,
				Retryable: true,
			}
		}
	}

	// url.Error wraps the interesting error; classify what's inside
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyTransportError(urlErr.Err)
	}

	return &RequestError{
		Kind:      ErrKindNetwork,
		Message:   "network error occurred",
		Err:       err,
		Retryable: true,
	}
}

// NewHTTPError creates an error for an unexpected HTTP status code
func NewHTTPError(statusCode int, message string) *RequestError {
	kind := ErrKindHTTP
	retryable := statusCode >= 500
	switch statusCode {
	case 401, 403:
		kind = ErrKindAuth
	case 400:
		kind = ErrKindValidation
	}
	return &RequestError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
	}
}

// NewParseError creates an error for a malformed response body
func NewParseError(message string, err error) *RequestError {
	return &RequestError{
		Kind:      ErrKindParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// AsRequestError extracts a *RequestError from an error chain.
// Returns nil if the chain contains none.
func AsRequestError(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return nil
}

// StatusCode returns the HTTP status code carried by err, or 0 if the error
// is not a RequestError or carries none.
func StatusCode(err error) int {
	if reqErr := AsRequestError(err); reqErr != nil {
		return reqErr.StatusCode
	}
	return 0
}

// FieldMessage returns the server-supplied per-field user message carried by
// err, or "" when there is none.
func FieldMessage(err error) string {
	if reqErr := AsRequestError(err); reqErr != nil {
		return reqErr.FieldMessage
	}
	return ""
}
