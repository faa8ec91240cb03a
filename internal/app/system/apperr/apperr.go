// Package apperr defines the error kinds surfaced by the circle services.
//
// Services return *Error values so handlers can map them to HTTP statuses
// without inspecting store internals. Store failures that are not a plain
// "not found" are wrapped as UpstreamUnavailable.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind classifies an error for callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindConflict
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// Stable machine-readable codes carried in error responses.
const (
	CodeNotFound           = "not_found"
	CodeForbidden          = "forbidden"
	CodeInvalidInput       = "invalid_input"
	CodeUpstream           = "upstream_unavailable"
	CodeInvalidCode        = "invalid_code"
	CodeAlreadyMember      = "already_member"
	CodeNoActiveCircle     = "no_active_circle"
	CodeLastAdmin          = "last_admin"
	CodeAlreadyRegistered  = "already_registered"
	CodeGroupNotInCircle   = "group_not_in_circle"
	CodeDuplicateGroup     = "duplicate_group"
	CodeCodeExhausted      = "invitation_code_exhausted"
	CodeNotRegistered      = "not_registered"
	CodeLanguageModelError = "language_model_error"
)

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: cause}
}

func NotFound(msg string) *Error {
	return newErr(KindNotFound, CodeNotFound, msg, nil)
}

func Forbidden(msg string) *Error {
	return newErr(KindForbidden, CodeForbidden, msg, nil)
}

func InvalidInput(msg string) *Error {
	return newErr(KindInvalidInput, CodeInvalidInput, msg, nil)
}

// Conflict requires a specific code; conflicts are always distinguishable.
func Conflict(code, msg string) *Error {
	return newErr(KindConflict, code, msg, nil)
}

func Upstream(msg string, cause error) *Error {
	return newErr(KindUpstreamUnavailable, CodeUpstream, msg, cause)
}

// WithCode returns a copy of e carrying code.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// FromStore converts a raw store error. mongo.ErrNoDocuments becomes
// NotFound(what); any other error becomes UpstreamUnavailable.
func FromStore(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound(what + " not found")
	}
	return Upstream("reading "+what, err)
}

// KindOf returns the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf returns the code of err, or "" for foreign errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
