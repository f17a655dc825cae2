package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeInvalidInput     ErrorType = "invalid_input"
	ErrorTypeImageDecode      ErrorType = "image_decode"
	ErrorTypeModelUnavailable ErrorType = "model_unavailable"
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
	ErrorTypeUnknownProfile   ErrorType = "unknown_profile"
	ErrorTypeUnknownPlatform  ErrorType = "unknown_platform"
	ErrorTypeAnalysisBranch   ErrorType = "analysis_branch"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeRateLimited      ErrorType = "rate_limited"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
)

// Analysis branch names used by branch failures.
const (
	BranchContrast  = "contrast"
	BranchAttention = "attention"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Branch != "" {
		msg = fmt.Sprintf("%s [branch=%s]", msg, e.Branch)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewInvalidInputError is returned for payloads rejected before entering the pipeline
func NewInvalidInputError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidInput, http.StatusBadRequest, message, cause)
}

// NewImageDecodeError is returned when bytes cannot be decoded into a raster
func NewImageDecodeError(message string, cause error) *AppError {
	return newError(ErrorTypeImageDecode, http.StatusUnprocessableEntity, message, cause)
}

// NewModelUnavailableError is returned when the attention model cannot load or infer
func NewModelUnavailableError(message string, cause error) *AppError {
	return newError(ErrorTypeModelUnavailable, http.StatusServiceUnavailable, message, cause)
}

// NewInsufficientDataError is returned when an image is too small for contrast sampling
func NewInsufficientDataError(message string, cause error) *AppError {
	return newError(ErrorTypeInsufficientData, http.StatusUnprocessableEntity, message, cause)
}

// NewUnknownProfileError creates a benchmark profile lookup miss. hint may be empty.
func NewUnknownProfileError(profile, hint string) *AppError {
	e := newError(ErrorTypeUnknownProfile, http.StatusNotFound, fmt.Sprintf("unknown benchmark profile %q", profile), nil)
	if hint != "" {
		e.Details = fmt.Sprintf("did you mean %q?", hint)
	}
	return e
}

// NewUnknownPlatformError creates a platform override lookup miss. hint may be empty.
func NewUnknownPlatformError(profile, platform, hint string) *AppError {
	e := newError(ErrorTypeUnknownPlatform, http.StatusNotFound,
		fmt.Sprintf("unknown platform %q for profile %q", platform, profile), nil)
	if hint != "" {
		e.Details = fmt.Sprintf("did you mean %q?", hint)
	}
	return e
}

// NewBranchError wraps the failure of one fork-join branch
func NewBranchError(branch string, cause error) *AppError {
	e := newError(ErrorTypeAnalysisBranch, http.StatusInternalServerError,
		fmt.Sprintf("%s analysis failed", branch), cause)
	e.Branch = branch
	// Surface the cause's own status so a model outage still reads as 503.
	var inner *AppError
	if errors.As(cause, &inner) {
		e.StatusCode = inner.StatusCode
	}
	return e
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewRateLimitedError creates a new rate limit error
func NewRateLimitedError(message string) *AppError {
	return newError(ErrorTypeRateLimited, http.StatusTooManyRequests, message, nil)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errorType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// BranchOf returns the failing branch name of a branch failure, or ""
func BranchOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Branch
	}
	return ""
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
