// Package apperr defines the error taxonomy shared by services and the
// HTTP layer. Errors carry a Kind that maps onto an HTTP status; everything
// else is wrapped with eris for stack context.
package apperr

import (
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
)

// Kind classifies an error for propagation policy and HTTP mapping.
type Kind int

const (
	// KindInternal is the default for unclassified failures.
	KindInternal Kind = iota
	// KindConflict means the resource already exists (domain, ICP, email).
	KindConflict
	// KindNotFound means a referenced resource is missing.
	KindNotFound
	// KindBadRequest means the input could not be used (empty domain list).
	KindBadRequest
	// KindInvalidResponse means an upstream LLM response failed to parse
	// where no degrade path exists.
	KindInvalidResponse
	// KindUnauthorized means missing or invalid credentials.
	KindUnauthorized
)

// Error is a classified application error.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }

func (e *Error) Unwrap() error { return e.err }

// New creates a classified error with the given message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, err: eris.New(msg)}
}

// Wrap classifies an existing error, keeping it in the chain.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, err: eris.Wrap(err, msg)}
}

// Conflict creates a Conflict error.
func Conflict(msg string) error { return New(KindConflict, msg) }

// NotFound creates a NotFound error.
func NotFound(msg string) error { return New(KindNotFound, msg) }

// BadRequest creates a BadRequest error.
func BadRequest(msg string) error { return New(KindBadRequest, msg) }

// InvalidResponse creates an InvalidResponse error.
func InvalidResponse(err error, msg string) error {
	return Wrap(KindInvalidResponse, err, msg)
}

// Unauthorized creates an Unauthorized error.
func Unauthorized(msg string) error { return New(KindUnauthorized, msg) }

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindInvalidResponse:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
