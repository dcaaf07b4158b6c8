package apperr

import "errors"

type Kind int

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindUpstream
)

// Error is a user-displayable failure with a transport-independent kind.
// HTTP handlers map kinds to status codes; the gateway maps them to
// `error` events.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

func BadRequest(msg string) *Error      { return New(KindBadRequest, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

// KindOf reports the kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// MessageOf returns the user-displayable message of err, or fallback
// for plain (internal) errors whose text must not leak to clients.
func MessageOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return fallback
}
