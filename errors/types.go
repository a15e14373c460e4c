package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Transport errors
	ErrCodeTransport     ErrorCode = "TRANSPORT"
	ErrCodeMalformed     ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeChannelClosed ErrorCode = "CHANNEL_CLOSED"

	// View errors
	ErrCodeDuplicateID ErrorCode = "DUPLICATE_ID"

	// Store errors
	ErrCodeStore          ErrorCode = "STORE"
	ErrCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// BoardError represents a structured error with context
type BoardError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *BoardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *BoardError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *BoardError) WithDetail(key string, value interface{}) *BoardError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *BoardError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new BoardError
func New(code ErrorCode, message string) *BoardError {
	return &BoardError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a BoardError
func Wrap(err error, code ErrorCode, message string) *BoardError {
	return &BoardError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific BoardError code.
// The chain is walked, so a BoardError wrapped by fmt.Errorf("%w") still matches.
func Is(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	boardErr, ok := err.(*BoardError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return boardErr.Code
}
