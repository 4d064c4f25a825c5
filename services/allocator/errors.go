package allocator

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrorKind is the stable classification the front door reports to
// callers.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindUpstream   ErrorKind = "upstream"
	KindTransport  ErrorKind = "transport"
)

type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf reports the classification of err, or KindUpstream when the
// error carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// upstreamKind tells a network-layer failure apart from a portal-level
// one: requests that never completed are transport, bad statuses and
// unparseable pages are upstream.
func upstreamKind(err error) ErrorKind {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindTransport
	}
	return KindUpstream
}
