package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *BoardError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *BoardError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// Transport creates an error for a failed request against the store.
func Transport(op, url string, err error) *BoardError {
	return Wrap(err, ErrCodeTransport, fmt.Sprintf("%s failed", op)).
		WithDetail("op", op).
		WithDetail("url", url)
}

// UnexpectedStatus creates a transport error for a non-success HTTP status.
func UnexpectedStatus(op, url string, status int) *BoardError {
	return New(ErrCodeTransport, fmt.Sprintf("%s returned status %d", op, status)).
		WithDetail("op", op).
		WithDetail("url", url).
		WithDetail("status", status)
}

// Malformed creates an error for a payload that could not be decoded.
func Malformed(what string, err error) *BoardError {
	return Wrap(err, ErrCodeMalformed, fmt.Sprintf("malformed %s", what))
}

// DuplicateID creates an error for an id that is already present in a view.
func DuplicateID(id int64) *BoardError {
	return New(ErrCodeDuplicateID, fmt.Sprintf("item %d is already in the view", id)).
		WithDetail("id", id)
}

// InvalidInput creates an error for a rejected user-supplied value.
func InvalidInput(field, reason string) *BoardError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("%s %s", field, reason)).
		WithDetail("field", field)
}

// AlreadyRunning creates an error for a second server instance.
func AlreadyRunning(pid int) *BoardError {
	return New(ErrCodeAlreadyRunning, fmt.Sprintf("server already running with PID %d", pid)).
		WithDetail("pid", pid)
}
