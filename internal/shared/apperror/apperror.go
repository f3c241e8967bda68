// Package apperror defines the error taxonomy shared by the booking core.
//
// Domain packages declare sentinel errors with New and compare with errors.Is.
// Is matches on Code, so an error decorated with WithDetails still matches
// its sentinel.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindPaymentVerification
	KindInvalidTransition
	KindExhausted
	KindBusy
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindPaymentVerification:
		return "payment_verification_failed"
	case KindInvalidTransition:
		return "invalid_state_transition"
	case KindExhausted:
		return "exhausted"
	case KindBusy:
		return "busy"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "internal"
}

// HTTPStatus maps a kind onto the status code returned to API clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindValidation, KindPaymentVerification:
		return http.StatusBadRequest
	case KindExhausted:
		return http.StatusUnprocessableEntity
	case KindBusy:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
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

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy carrying details for the client, e.g. the conflicting seats.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

var (
	ErrBusy         = New(KindBusy, "BUSY", "resource is busy, please retry")
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbidden    = New(KindForbidden, "FORBIDDEN", "access denied")
)
