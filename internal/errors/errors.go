// Package errors defines the error taxonomy shared by the escrow engine and its transport.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of escrow error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the job id is unknown.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInvalidInput indicates malformed arguments (zero reward, deposit mismatch, ...).
	ErrCodeInvalidInput ErrorCode = "invalid_input"
	// ErrCodeInvalidState indicates the operation is not legal for the job's current status.
	ErrCodeInvalidState ErrorCode = "invalid_state"
	// ErrCodeUnauthorized indicates the caller does not hold the role the operation requires.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeDeadlineNotReached indicates a client refund on an assigned job before its deadline.
	ErrCodeDeadlineNotReached ErrorCode = "deadline_not_reached"
	// ErrCodeTransferFailure indicates funds could not be moved.
	ErrCodeTransferFailure ErrorCode = "transfer_failure"
	// ErrCodeAlreadyApplied indicates the caller is already in the applicant set.
	ErrCodeAlreadyApplied ErrorCode = "already_applied"
	// ErrCodeInternal indicates an unexpected failure (storage, lock backend).
	ErrCodeInternal ErrorCode = "internal"
)

// AppError is a categorized error. It supports errors.Is and errors.As through Unwrap.
type AppError struct {
	// Code categorizes the error
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newf(ErrCodeNotFound, format, args...)
}

// InvalidInputf creates a new InvalidInput error with formatted message.
func InvalidInputf(format string, args ...any) *AppError {
	return newf(ErrCodeInvalidInput, format, args...)
}

// InvalidStatef creates a new InvalidState error with formatted message.
func InvalidStatef(format string, args ...any) *AppError {
	return newf(ErrCodeInvalidState, format, args...)
}

// Unauthorizedf creates a new Unauthorized error with formatted message.
func Unauthorizedf(format string, args ...any) *AppError {
	return newf(ErrCodeUnauthorized, format, args...)
}

// DeadlineNotReachedf creates a new DeadlineNotReached error with formatted message.
func DeadlineNotReachedf(format string, args ...any) *AppError {
	return newf(ErrCodeDeadlineNotReached, format, args...)
}

// AlreadyAppliedf creates a new AlreadyApplied error with formatted message.
func AlreadyAppliedf(format string, args ...any) *AppError {
	return newf(ErrCodeAlreadyApplied, format, args...)
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// CodeOf returns the code of the outermost AppError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsInvalidInput checks if an error is an InvalidInput error.
func IsInvalidInput(err error) bool { return isCode(err, ErrCodeInvalidInput) }

// IsInvalidState checks if an error is an InvalidState error.
func IsInvalidState(err error) bool { return isCode(err, ErrCodeInvalidState) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsDeadlineNotReached checks if an error is a DeadlineNotReached error.
func IsDeadlineNotReached(err error) bool { return isCode(err, ErrCodeDeadlineNotReached) }

// IsTransferFailure checks if an error is a TransferFailure error.
func IsTransferFailure(err error) bool { return isCode(err, ErrCodeTransferFailure) }

// IsAlreadyApplied checks if an error is an AlreadyApplied error.
func IsAlreadyApplied(err error) bool { return isCode(err, ErrCodeAlreadyApplied) }
