// Package domainerrors defines coded domain errors shared across services and
// transport. Services translate sentinel infrastructure errors into these codes;
// handlers translate codes into HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of domain failure.
type Code string

const (
	// Registry admission and reconciliation failures.
	CodeDuplicateOwner       Code = "duplicate_owner"
	CodeInvalidProof         Code = "invalid_proof"
	CodeArrayLengthMismatch  Code = "array_length_mismatch"
	CodeBatchTooLarge        Code = "batch_too_large"
	CodeNotFound             Code = "not_found"
	CodeAlreadyDecrypted     Code = "already_decrypted"
	CodeAgeRequirementNotMet Code = "age_requirement_not_met"

	// Cross-cutting failures.
	CodeValidation   Code = "validation_error"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a domain error carrying a code, a caller-safe message, and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeDuplicateOwner, CodeAlreadyDecrypted:
		return http.StatusConflict
	case CodeInvalidProof:
		return http.StatusForbidden
	case CodeArrayLengthMismatch, CodeBatchTooLarge, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAgeRequirementNotMet:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
