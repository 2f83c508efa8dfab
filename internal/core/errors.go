package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the command boundary, which maps each
// kind to user-facing reply text.
type Kind string

const (
	KindParse        Kind = "parse_failure"
	KindValidation   Kind = "validation_failure"
	KindNotFound     Kind = "not_found"
	KindConnectivity Kind = "connectivity_failure"
	KindSafety       Kind = "safety_rejection"
	KindInternal     Kind = "internal_error"
)

// Error carries a kind plus a user-facing message. Components return
// these instead of raising free-form errors; nothing below the command
// boundary formats reply text.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an error of the given kind with a formatted message.
// A %w verb wraps the cause as usual.
func Errorf(kind Kind, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: err.Error(), Err: errors.Unwrap(err)}
}

// KindOf extracts the kind from an error chain, defaulting to
// KindInternal for errors no component classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinel errors shared across components. Wrap with %w so KindOf and
// errors.Is both keep working through the chain.
var (
	ErrInvalidDate     = NewError(KindValidation, "invalid date")
	ErrInvalidNumber   = NewError(KindValidation, "invalid number")
	ErrInvalidCategory = NewError(KindValidation, "invalid category")
	ErrInvalidPeriod   = NewError(KindValidation, "invalid period")
	ErrEmptyName       = NewError(KindValidation, "name must not be empty")
	ErrNotFound        = NewError(KindNotFound, "no such transaction")
	ErrNotSelect       = NewError(KindSafety, "only SELECT statements are allowed")
	ErrUnavailable     = NewError(KindConnectivity, "storage unavailable")
)
