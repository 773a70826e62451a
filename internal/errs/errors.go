// Package errs provides the unified error type and classifier used across
// all of orakit.
//
// Every subsystem (pool, executor, driver, schema service) wraps its native
// errors into *errs.Error before returning them to callers. Callers use the
// Is* predicates to handle errors without importing driver packages, and
// the retry policy uses Classify / RecoveryFor to decide what is worth
// retrying.
//
// Usage:
//
//	// In the driver, wrap native errors:
//	return errs.Wrap(errs.Connection, "dial failed", oraErr)
//
//	// In a caller, check the category:
//	if errs.IsResource(err) {
//	    // pool exhausted, back off
//	}
package errs

import (
	"errors"
	"fmt"
)

// Category buckets a backend error without exposing driver-specific codes.
type Category int

const (
	Unknown Category = iota
	Connection
	Authentication
	Permission
	Syntax
	Data
	Resource
)

func (c Category) String() string {
	switch c {
	case Connection:
		return "connection"
	case Authentication:
		return "authentication"
	case Permission:
		return "permission"
	case Syntax:
		return "syntax"
	case Data:
		return "data"
	case Resource:
		return "resource"
	default:
		return "unknown"
	}
}

// Strategy is the recommended recovery action for a Category.
type Strategy int

const (
	Escalate Strategy = iota
	RetryWithBackoff
	RefreshCredentials
	FailFast
)

func (s Strategy) String() string {
	switch s {
	case RetryWithBackoff:
		return "retry_with_backoff"
	case RefreshCredentials:
		return "refresh_credentials"
	case FailFast:
		return "fail_fast"
	default:
		return "escalate"
	}
}

// RecoveryFor maps a category to its recovery strategy. Pure function,
// no I/O: Connection and Resource failures are transient and worth a
// bounded retry; Authentication cannot change without new credentials;
// Permission, Syntax and Data failures are deterministic and must fail
// fast; Unknown is escalated to the caller.
func RecoveryFor(c Category) Strategy {
	switch c {
	case Connection, Resource:
		return RetryWithBackoff
	case Authentication:
		return RefreshCredentials
	case Permission, Syntax, Data:
		return FailFast
	default:
		return Escalate
	}
}

// Error is the single error type returned by all orakit subsystems.
// Drivers produce it; callers inspect it via the Is* predicates.
type Error struct {
	Category Category
	Message  string
	Stmt     string // offending statement text, set on query errors
	Cause    error  // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given category and message and no cause.
func New(category Category, msg string) *Error {
	return &Error{Category: category, Message: msg}
}

// Wrap creates an *Error with the given category, message, and cause.
func Wrap(category Category, msg string, cause error) *Error {
	return &Error{Category: category, Message: msg, Cause: cause}
}

// WithStmt attaches the offending statement text and returns e.
func (e *Error) WithStmt(stmt string) *Error {
	e.Stmt = stmt
	return e
}

// --- Predicates ---

// IsConnection reports whether err is a network / listener failure.
func IsConnection(err error) bool { return CategoryOf(err) == Connection }

// IsAuthentication reports whether err is a credential failure.
func IsAuthentication(err error) bool { return CategoryOf(err) == Authentication }

// IsPermission reports whether err is an insufficient-privilege failure.
func IsPermission(err error) bool { return CategoryOf(err) == Permission }

// IsSyntax reports whether err is a malformed-statement failure.
func IsSyntax(err error) bool { return CategoryOf(err) == Syntax }

// IsData reports whether err is a data-level failure (constraint
// violation, missing object, no rows).
func IsData(err error) bool { return CategoryOf(err) == Data }

// IsResource reports whether err is an exhaustion failure (pool, cursors,
// server memory).
func IsResource(err error) bool { return CategoryOf(err) == Resource }

// CategoryOf extracts the Category from any *Error in the chain.
// Errors that never passed through a driver boundary are Unknown.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return Unknown
}
