// Package domainerrors provides coded errors for the ledger and mirror
// domain. Services return these so transports can map failures to wire
// statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure. Codes are part of the API contract:
// handlers translate them to HTTP statuses and clients branch on them.
type Code string

const (
	// CodeUnauthorized means the actor lacks the role required for the
	// operation (e.g. a hospital party registering a policy).
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound means the referenced policy, claim, party, or mirror
	// record does not exist.
	CodeNotFound Code = "not_found"

	// CodeInvalidInput means a field constraint was violated at
	// registration or submission time.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotYetEffective means the operation happened before the
	// policy's coverage window opened.
	CodeNotYetEffective Code = "policy_not_yet_effective"

	// CodeExpired means the operation happened after the policy's
	// coverage window closed.
	CodeExpired Code = "policy_expired"

	// CodeAlreadyProcessed means a claim that already reached a terminal
	// status was processed again.
	CodeAlreadyProcessed Code = "already_processed"

	// CodeSyncFailure means a mirror write could not resolve its
	// authoritative reference; nothing was applied.
	CodeSyncFailure Code = "sync_failure"

	// CodeInvariantViolation marks a model constructor or state machine
	// rejecting an illegal transition. Services usually translate these
	// to CodeInvalidInput before they cross the API boundary.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeConflict marks a uniqueness violation.
	CodeConflict Code = "conflict"

	// CodeInternal is the fallback for infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It supports errors.Is/As chains via Unwrap.
type Error struct {
	ErrCode Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.ErrCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a coded error with a static message.
func New(code Code, message string) error {
	return &Error{ErrCode: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{ErrCode: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{ErrCode: code, Message: message, Cause: err}
}

// CodeOf returns the code carried by err, or CodeInternal when err carries
// none. A nil err yields the empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.ErrCode
	}
	return CodeInternal
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.ErrCode == code {
			return true
		}
		err = de.Cause
		de = nil
	}
	return false
}

// MessageOf returns the human-readable message of the outermost coded error,
// or err.Error() for uncoded errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
