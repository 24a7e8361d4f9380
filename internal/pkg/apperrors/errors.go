// Package apperrors defines the error kinds surfaced by the entitlement and
// delivery services. Every error returned across a package boundary carries
// one of these kinds so callers can branch with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine readable error class.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindInactive               Kind = "inactive"
	KindAuthenticationRequired Kind = "authentication_required"
	KindForbidden              Kind = "forbidden"
	KindPriceMismatch          Kind = "price_mismatch"
	KindAlreadyEnrolled        Kind = "already_enrolled"
	KindDuplicateEntitlement   Kind = "duplicate_entitlement"
	KindInvalidState           Kind = "invalid_state"
	KindGateway                Kind = "gateway_error"
	KindIntegrity              Kind = "integrity_error"
	KindValidation             Kind = "validation_error"
	KindInternal               Kind = "internal_error"
)

// Sentinel errors, one per kind. Use errors.Is(err, ErrNotFound) and friends.
var (
	ErrNotFound               = errors.New("not found")
	ErrInactive               = errors.New("inactive")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden")
	ErrPriceMismatch          = errors.New("price mismatch")
	ErrAlreadyEnrolled        = errors.New("already enrolled")
	ErrDuplicateEntitlement   = errors.New("duplicate entitlement")
	ErrInvalidState           = errors.New("invalid state")
	ErrGateway                = errors.New("payment gateway error")
	ErrIntegrity              = errors.New("integrity check failed")
	ErrValidation             = errors.New("validation failed")
	ErrInternal               = errors.New("internal error")
)

var sentinels = map[Kind]error{
	KindNotFound:               ErrNotFound,
	KindInactive:               ErrInactive,
	KindAuthenticationRequired: ErrAuthenticationRequired,
	KindForbidden:              ErrForbidden,
	KindPriceMismatch:          ErrPriceMismatch,
	KindAlreadyEnrolled:        ErrAlreadyEnrolled,
	KindDuplicateEntitlement:   ErrDuplicateEntitlement,
	KindInvalidState:           ErrInvalidState,
	KindGateway:                ErrGateway,
	KindIntegrity:              ErrIntegrity,
	KindValidation:             ErrValidation,
	KindInternal:               ErrInternal,
}

// FieldError describes a validation problem on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the concrete error type carrying a Kind.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind. An inactive item is also
// reported as not found so callers that only care about availability can
// check a single sentinel.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && s == target {
		return true
	}
	return e.Kind == KindInactive && target == ErrNotFound
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation builds a validation error from field problems.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(format string, args ...any) *Error { return New(KindNotFound, format, args...) }

func Gateway(err error, format string, args ...any) *Error {
	return Wrap(KindGateway, err, format, args...)
}

func Integrity(format string, args ...any) *Error { return New(KindIntegrity, format, args...) }

// KindOf returns the kind of err, or KindInternal for errors without one.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// FieldsOf returns the validation field errors carried by err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// IsRetryable reports whether the caller may safely retry the operation.
// Only upstream gateway failures qualify; integrity failures never do.
func IsRetryable(err error) bool {
	return KindOf(err) == KindGateway
}
