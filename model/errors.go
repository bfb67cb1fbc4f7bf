package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes model call failures so callers can pick a
// user-facing treatment without inspecting vendor specific errors.
type ErrorType int8

const (
	// ErrorTypeUnknown is the default for unclassified errors.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit represents rate limiting errors (429, quota exceeded).
	ErrorTypeRateLimit
	// ErrorTypeTransient represents transient errors (5xx, EOF, connection reset, timeout).
	ErrorTypeTransient
	// ErrorTypeEmptyResponse represents a successful call that carried no usable content.
	ErrorTypeEmptyResponse
	// ErrorTypeAuth represents authentication errors (401/403, bad API key).
	ErrorTypeAuth
	// ErrorTypeBadPrompt represents malformed requests or unparseable structured output.
	ErrorTypeBadPrompt
	// ErrorTypeServiceUnavailable represents a provider short-circuited by the breaker.
	ErrorTypeServiceUnavailable
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeServiceUnavailable:
		return "service_unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified model error.
type Error struct {
	Err        error     // Wrapped underlying error
	Message    string    // Human-readable error message
	Type       ErrorType // Classified error type
	StatusCode int       // HTTP status code if applicable
}

// NewError creates a classified error without an underlying cause.
func NewError(t ErrorType, msg string) *Error {
	return &Error{Type: t, Message: msg}
}

// WrapError classifies err and wraps it with a provider specific message.
func WrapError(err error, format string, args ...any) *Error {
	return &Error{Err: err, Message: fmt.Sprintf(format, args...), Type: Classify(err)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("model error (%s): %s: %v", e.Type, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("model error (%s): %s", e.Type, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("model error (%s): %v", e.Type, e.Err)
	default:
		return fmt.Sprintf("model error (%s): status %d", e.Type, e.StatusCode)
	}
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err is a classified model error of the given type.
func IsType(err error, t ErrorType) bool {
	return Classify(err) == t
}

// IsQuota reports whether err signals an exhausted quota or rate limit.
func IsQuota(err error) bool {
	return Classify(err) == ErrorTypeRateLimit
}

// Classify maps an arbitrary error to an ErrorType. Classified *Error values
// keep their type unless it is unknown, in which case the message text is
// inspected like any other error.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var mErr *Error
	if errors.As(err, &mErr) && mErr.Type != ErrorTypeUnknown {
		return mErr.Type
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTransient
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "429") || strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return ErrorTypeRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(lower, "api key"):
		return ErrorTypeAuth
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") ||
		strings.Contains(lower, "timeout") || strings.Contains(lower, "connection reset") || strings.Contains(msg, "EOF"):
		return ErrorTypeTransient
	default:
		return ErrorTypeUnknown
	}
}
