package errors

import "fmt"

// ErrorCode represents a vaultd error code.
type ErrorCode string

const (
	ErrAuthFailed       ErrorCode = "AUTH_FAILED"        // 401
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"  // 403
	ErrNotFound         ErrorCode = "NOT_FOUND"          // 404
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"    // 400
	ErrContentTooLarge  ErrorCode = "CONTENT_TOO_LARGE"  // 413
	ErrThrottled        ErrorCode = "THROTTLED"          // 429
	ErrSourceDown       ErrorCode = "SOURCE_UNAVAILABLE" // 502, per-source only
	ErrInternal         ErrorCode = "INTERNAL"           // 500
)

// VaultError represents a structured error with code, status, and details.
type VaultError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAuthFailed creates a 401 error. The message is deliberately uniform:
// invalid, expired, and rate-limited tokens all read the same to the caller.
func NewAuthFailed() *VaultError {
	return &VaultError{
		Code:    ErrAuthFailed,
		Status:  401,
		Message: "invalid or expired vault token",
	}
}

// NewPermissionDenied creates a 403 error for role mismatches and
// path-escape rejections.
func NewPermissionDenied(msg string) *VaultError {
	return &VaultError{
		Code:    ErrPermissionDenied,
		Status:  403,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing secret, document, or
// contribution.
func NewNotFound(kind, identifier string) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewContentTooLarge creates a 413 error when input exceeds a size ceiling.
func NewContentTooLarge(field string, max, actual int) *VaultError {
	return &VaultError{
		Code:    ErrContentTooLarge,
		Status:  413,
		Message: fmt.Sprintf("%s exceeds maximum size: %d bytes (max %d)", field, actual, max),
		Details: map[string]any{"field": field, "max_bytes": max, "actual_bytes": actual},
	}
}

// NewThrottled creates a 429 error carrying the current contribution ratio
// and a remediation hint.
func NewThrottled(ratio, required float64) *VaultError {
	return &VaultError{
		Code:    ErrThrottled,
		Status:  429,
		Message: "contribution ratio too low; share approved intelligence to continue querying",
		Details: map[string]any{
			"ratio":            ratio,
			"required_ratio":   required,
			"retry_after_secs": 60,
			"tip":              "contribute and approve content to improve your ratio",
		},
	}
}

// NewSourceUnavailable creates a per-source query failure. It is recorded in
// the source report of a federated query, never returned as the overall
// query result.
func NewSourceUnavailable(source string, err error) *VaultError {
	msg := "source unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrSourceDown,
		Status:  502,
		Message: fmt.Sprintf("source %q: %s", source, msg),
		Details: map[string]any{"source": source},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VaultError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VaultError); ok {
		return vErr.Code == code
	}
	return false
}
