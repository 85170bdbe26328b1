package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an API error
type Kind string

const (
	KindAuth                Kind = "auth"
	KindValidation          Kind = "validation"
	KindTransport           Kind = "transport"
	KindRateLimit           Kind = "rate_limit"
	KindMediaProcessing     Kind = "media_processing"
	KindAmbiguousSubmission Kind = "ambiguous_submission"
	KindParsing             Kind = "parsing"
	KindNotFound            Kind = "not_found"
	KindUnknown             Kind = "unknown"
)

// Error represents a classified API error. Code is the HTTP status code
// when one was observed, 0 for network-level failures.
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(kind Kind, code int, err error, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// AuthError marks a 401/403 response. Never retried.
func AuthError(code int, message string) *Error {
	return New(KindAuth, code, message)
}

// ValidationError marks a caller input defect detected before any network
// call. Never retried.
func ValidationError(message string) *Error {
	return New(KindValidation, 0, message)
}

// TransportError marks exhausted retries on a network or 5xx failure.
func TransportError(code int, err error, message string) *Error {
	return Wrap(KindTransport, code, err, message)
}

// RateLimitError marks retries exhausted specifically on persistent 429s.
func RateLimitError(err error, message string) *Error {
	return Wrap(KindRateLimit, 429, err, message)
}

// MediaProcessingError marks a vendor-side processing failure for an
// uploaded asset. Reason is the vendor's failure reason if it supplied one.
func MediaProcessingError(assetID, reason string) *Error {
	msg := fmt.Sprintf("media %s failed processing", assetID)
	if reason != "" {
		msg += ": " + reason
	}
	return New(KindMediaProcessing, 0, msg)
}

// AmbiguousSubmissionError marks a non-idempotent request whose outcome on
// the server is unknown. IdempotencyKey lets the caller resubmit safely.
type AmbiguousSubmissionError struct {
	IdempotencyKey string
	Err            error
}

func (e *AmbiguousSubmissionError) Error() string {
	return fmt.Sprintf("submission outcome unknown (idempotency key %s): %v", e.IdempotencyKey, e.Err)
}

func (e *AmbiguousSubmissionError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

func IsAuth(err error) bool       { return IsKind(err, KindAuth) }
func IsValidation(err error) bool { return IsKind(err, KindValidation) }
func IsTransport(err error) bool  { return IsKind(err, KindTransport) }
func IsRateLimit(err error) bool  { return IsKind(err, KindRateLimit) }

// IsAmbiguous reports whether err wraps an AmbiguousSubmissionError.
func IsAmbiguous(err error) bool {
	var amb *AmbiguousSubmissionError
	return errors.As(err, &amb)
}

// IsRetryable checks if an error kind should be retried
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindTransport, KindRateLimit:
		return true
	case KindAuth, KindValidation, KindNotFound, KindParsing, KindMediaProcessing, KindAmbiguousSubmission:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404, 422: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
