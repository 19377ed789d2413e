package errors

import (
	"fmt"
	"net/http"
)

// Kind categorizes scan failures. Only the fatal kinds abort a scan;
// detector fallback and byte-read failures degrade in place and are
// reflected in the result data instead.
type Kind string

const (
	KindInputNotFound    Kind = "input_not_found"
	KindUnsupportedMedia Kind = "unsupported_media"
	KindNoFramesSampled  Kind = "no_frames_sampled"
	KindValidation       Kind = "validation"
	KindNetwork          Kind = "network"
	KindTimeout          Kind = "timeout"
	KindInternal         Kind = "internal"
)

// ScanError is a structured error carrying the failure kind and an
// HTTP status for the transport layer.
type ScanError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// NewInputNotFound reports a missing input path.
func NewInputNotFound(path string, cause error) *ScanError {
	return &ScanError{
		Kind:       KindInputNotFound,
		Message:    fmt.Sprintf("input not found: %s", path),
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewUnsupportedMedia reports a file the decoder cannot open as an
// image or video.
func NewUnsupportedMedia(path string, cause error) *ScanError {
	return &ScanError{
		Kind:       KindUnsupportedMedia,
		Message:    fmt.Sprintf("unsupported or corrupt media: %s", path),
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewNoFramesSampled reports a video that yielded no frames at the
// configured stride.
func NewNoFramesSampled(stride int) *ScanError {
	return &ScanError{
		Kind:       KindNoFramesSampled,
		Message:    fmt.Sprintf("no frames sampled at stride %d; retry with a smaller frame stride", stride),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewValidationError reports a malformed request or option set.
func NewValidationError(message string, cause error) *ScanError {
	return &ScanError{
		Kind:       KindValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError reports a failed media fetch.
func NewNetworkError(message string, cause error) *ScanError {
	return &ScanError{
		Kind:       KindNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewTimeoutError reports an exceeded deadline.
func NewTimeoutError(message string, cause error) *ScanError {
	return &ScanError{
		Kind:       KindTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string, cause error) *ScanError {
	return &ScanError{
		Kind:       KindInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsKind checks whether err is a ScanError of the given kind.
func IsKind(err error, kind Kind) bool {
	if scanErr, ok := err.(*ScanError); ok {
		return scanErr.Kind == kind
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error.
func GetStatusCode(err error) int {
	if scanErr, ok := err.(*ScanError); ok {
		return scanErr.StatusCode
	}
	return http.StatusInternalServerError
}
