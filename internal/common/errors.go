package common

import (
	"errors"
	"fmt"
)

// Kind is the closed enumeration of failure classes. The retry policy and the
// HTTP layer switch on Kind, never on concrete error types.
type Kind int

const (
	// KindRetryable covers transient faults (network hiccups, storage
	// blips). Errors of unknown provenance are classified retryable.
	KindRetryable Kind = iota
	// KindNonRetryable covers defective input: a retry cannot succeed.
	KindNonRetryable
	// KindValidation is a synchronous rejection at the upload boundary.
	KindValidation
	// KindNotFound is a missing resource (patient, task).
	KindNotFound
	// KindConflict is a uniqueness violation (duplicate patient name).
	KindConflict
	// KindBestEffort marks failures of the archival side-channel; they are
	// logged and swallowed, never retried and never fatal.
	KindBestEffort
)

// AppError carries a failure kind, a stable code, and a human message.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error constructors, one per kind.

func Retryable(code, message string, cause error) *AppError {
	return &AppError{Kind: KindRetryable, Code: code, Message: message, Cause: cause}
}

func NonRetryable(code, message string, cause error) *AppError {
	return &AppError{Kind: KindNonRetryable, Code: code, Message: message, Cause: cause}
}

func Validation(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

func BestEffort(code, message string, cause error) *AppError {
	return &AppError{Kind: KindBestEffort, Code: code, Message: message, Cause: cause}
}

// KindOf classifies any error. Untagged errors are treated as transient so
// that an unexpected fault still gets the bounded-retry path rather than an
// instant permanent failure.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindRetryable
}

// CodeOf returns the stable code of a tagged error, "" otherwise.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
