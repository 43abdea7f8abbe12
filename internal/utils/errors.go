package utils

import (
	"errors"
	"fmt"

	"github.com/dest-ash/bnncache/internal/types"
)

// Exit codes
const (
	ExitSuccess = 0
	// Auth errors (10-19)
	ExitAuthRequired = 10
	// Cache errors (20-29)
	ExitCacheExists  = 20
	ExitFileNotFound = 21
	// Network errors (30-39)
	ExitNetworkError  = 30
	ExitTimeout       = 31
	ExitRateLimited   = 32
	ExitListingFailed = 33
	// Validation errors (40-49)
	ExitInvalidArgument = 40
	// Unknown
	ExitUnknown = 99
)

// Error codes (tool-owned, stable)
const (
	ErrCodeAuthRequired     = "AUTH_REQUIRED"
	ErrCodeCacheExists      = "CACHE_EXISTS"
	ErrCodeFileNotFound     = "FILE_NOT_FOUND"
	ErrCodeListingFailed    = "LISTING_FAILED"
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeInvalidPointer   = "INVALID_POINTER"
	ErrCodeOverrideInvalid  = "OVERRIDE_INVALID"
	ErrCodeNetworkError     = "NETWORK_ERROR"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeUnknown          = "UNKNOWN"
)

// CLIErrorBuilder helps construct CLIError instances
type CLIErrorBuilder struct {
	err types.CLIError
}

// NewCLIError creates a new error builder
func NewCLIError(code, message string) *CLIErrorBuilder {
	return &CLIErrorBuilder{
		err: types.CLIError{
			Code:    code,
			Message: message,
		},
	}
}

func (b *CLIErrorBuilder) WithHTTPStatus(status int) *CLIErrorBuilder {
	b.err.HTTPStatus = status
	return b
}

func (b *CLIErrorBuilder) WithRetryable(retryable bool) *CLIErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *CLIErrorBuilder) WithContext(key string, value interface{}) *CLIErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

func (b *CLIErrorBuilder) Build() types.CLIError {
	return b.err
}

// GetExitCode returns the exit code for an error code
func GetExitCode(errorCode string) int {
	mapping := map[string]int{
		ErrCodeAuthRequired:     ExitAuthRequired,
		ErrCodeCacheExists:      ExitCacheExists,
		ErrCodeFileNotFound:     ExitFileNotFound,
		ErrCodeListingFailed:    ExitListingFailed,
		ErrCodeFetchFailed:      ExitNetworkError,
		ErrCodeNetworkError:     ExitNetworkError,
		ErrCodeTimeout:          ExitTimeout,
		ErrCodeRateLimited:      ExitRateLimited,
		ErrCodeInvalidArgument:  ExitInvalidArgument,
		ErrCodePermissionDenied: ExitFileNotFound,
	}
	if code, ok := mapping[errorCode]; ok {
		return code
	}
	return ExitUnknown
}

// AppError is a custom error type that carries CLI error info
type AppError struct {
	CLIError types.CLIError
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.CLIError.Code, e.CLIError.Message)
}

// NewAppError creates an AppError from a CLIError
func NewAppError(cliErr types.CLIError) *AppError {
	return &AppError{CLIError: cliErr}
}

// IsRetryable reports whether err carries a retryable CLI error
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError.Retryable
	}
	return false
}

// ErrorCode extracts the stable error code from err, or ErrCodeUnknown
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError.Code
	}
	return ErrCodeUnknown
}

// HTTPStatus extracts the HTTP status carried by err, or 0
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError.HTTPStatus
	}
	return 0
}
