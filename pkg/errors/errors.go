package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeClientError ErrorType = "client_error"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a failure with enough context to be reported per paste or per page
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	msg += ": " + e.Message
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Wrap creates an Error of the given type around an underlying cause
func Wrap(errType ErrorType, err error, message string) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf("%s: %v", message, err), Err: err}
}

// FromStatus maps a non-2xx HTTP status code to a typed error.
// It returns nil for 2xx codes.
func FromStatus(statusCode int, url string) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	e := &Error{Code: statusCode, URL: url, Message: http.StatusText(statusCode)}
	switch {
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		e.Type = ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
	case statusCode >= 500:
		e.Type = ErrorTypeServerError
	case statusCode >= 400:
		e.Type = ErrorTypeClientError
	default:
		e.Type = ErrorTypeUnknown
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return e
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err is not an *Error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given ErrorType anywhere in its chain
func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
