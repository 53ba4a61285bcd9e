package errors

import "fmt"

// ErrorCode represents an Easel error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrParse           ErrorCode = "PARSE_ERROR"      // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"   // 404
	ErrVersionConflict ErrorCode = "VERSION_CONFLICT" // 409
	ErrDraftTooLarge   ErrorCode = "DRAFT_TOO_LARGE"  // 413
	ErrCancelled       ErrorCode = "CANCELLED"        // 499
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// EaselError represents a structured error with code, status, and details.
type EaselError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *EaselError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *EaselError {
	return &EaselError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewParse creates a 400 error for source text that could not be parsed
// into a canvas document.
func NewParse(err error) *EaselError {
	msg := "invalid document source"
	if err != nil {
		msg = fmt.Sprintf("invalid document source: %v", err)
	}
	return &EaselError{
		Code:    ErrParse,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a draft cannot be found.
func NewNotFound(identifier string) *EaselError {
	return &EaselError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("draft not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewVersionNotFound creates a 404 error for a missing version of a lineage.
func NewVersionNotFound(lineageID string, version int) *EaselError {
	return &EaselError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("draft version not found: %s v%d", lineageID, version),
		Details: map[string]any{"lineage_id": lineageID, "version": version},
	}
}

// NewFileNotFound creates a 404 error for import/restore paths that do not exist.
func NewFileNotFound(path string) *EaselError {
	return &EaselError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewVersionConflict creates a 409 error when the caller's expected version
// is not the lineage head. latest is attached so the caller can rebase.
func NewVersionConflict(expected, actual int, latest any) *EaselError {
	return &EaselError{
		Code:    ErrVersionConflict,
		Status:  409,
		Message: fmt.Sprintf("draft version conflict: expected %d, latest is %d", expected, actual),
		Details: map[string]any{"expected_version": expected, "latest_version": actual, "latest": latest},
	}
}

// NewDraftTooLarge creates a 413 error when a serialized canvas exceeds the size limit.
func NewDraftTooLarge(max, actual int) *EaselError {
	return &EaselError{
		Code:    ErrDraftTooLarge,
		Status:  413,
		Message: fmt.Sprintf("draft exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewCancelled creates a 499 error for operations stopped by context cancellation.
func NewCancelled(op string) *EaselError {
	return &EaselError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *EaselError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &EaselError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an EaselError with the given code.
func Is(err error, code ErrorCode) bool {
	if eErr, ok := err.(*EaselError); ok {
		return eErr.Code == code
	}
	return false
}
