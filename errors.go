package diagdex

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// ETRANSIENT and EPERMANENT classify failures of external collaborators
// (describer, embedder, vector store): transient failures are retried
// with backoff, permanent failures abort the affected unit immediately.
// EINTEGRITY marks data that cannot be ingested safely (for example a
// chunk id collision with differing content); the affected unit is
// skipped and ingestion continues.
const (
	ECONFLICT  = "conflict"
	EINTERNAL  = "internal"
	EINVALID   = "invalid"
	ENOTFOUND  = "not_found"
	ETRANSIENT = "transient"
	EPERMANENT = "permanent"
	EINTEGRITY = "integrity"
)

// Error represents an application error with a machine-readable code
// and a human-readable message.
type Error struct {
	// Code is one of the application error codes above.
	Code string

	// Message is a human-readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("diagdex error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors return EINTERNAL; nil returns the empty string.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return a generic message; nil returns the
// empty string.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	}
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsTransient reports whether err is worth retrying. Collaborator
// clients classify timeouts, rate limits and 5xx-equivalents as
// ETRANSIENT; everything else fails fast.
func IsTransient(err error) bool {
	return err != nil && ErrorCode(err) == ETRANSIENT
}
