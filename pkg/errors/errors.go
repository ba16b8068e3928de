package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies failures the scraper can encounter
type Kind string

const (
	KindRateLimited Kind = "rate_limited"
	KindTransient   Kind = "transient"
	KindFatal       Kind = "fatal"
	KindMalformed   Kind = "malformed"
	KindIO          Kind = "io"
)

// Error represents a typed scraper error with its HTTP context
type Error struct {
	Kind    Kind
	Message string
	Status  int
	// RetryAfter is the minimum wait the server demanded before a retry.
	// Only meaningful for KindRateLimited.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// New creates a typed error without HTTP context
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FromStatus classifies an HTTP status code into the error taxonomy.
// 429 is rate-limited, 5xx is transient, any other 4xx is fatal.
func FromStatus(status int, message string) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Message: message, Status: status}
	case status >= 500:
		return &Error{Kind: KindTransient, Message: message, Status: status}
	default:
		return &Error{Kind: KindFatal, Message: message, Status: status}
	}
}

// KindOf extracts the kind from any error. Errors that are not *Error
// (plain I/O failures, wrapped or not) are reported as KindIO.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// IsRetryable reports whether the engine may retry the failed request.
// Only rate-limited and transient errors are retryable; fatal, malformed
// and I/O errors halt the run immediately.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindTransient:
		return true
	default:
		return false
	}
}

// RetryAfter returns the server-demanded minimum wait for a rate-limited
// error, or zero for everything else.
func RetryAfter(err error) time.Duration {
	var e *Error
	if stderrors.As(err, &e) && e.Kind == KindRateLimited {
		return e.RetryAfter
	}
	return 0
}
