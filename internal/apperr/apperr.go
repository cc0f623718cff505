// Package apperr defines the error kinds the service reports to callers.
// Every failure a handler can surface is one of these kinds; the HTTP
// mapping lives in a single place in the handlers package.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindAuthenticationRequired Kind = "AuthenticationRequired"
	KindValidation             Kind = "ValidationError"
	KindNotFound               Kind = "NotFound"
	KindInvalidIdentifier      Kind = "InvalidIdentifier"
	KindUpstreamUnavailable    Kind = "UpstreamUnavailable"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone, so callers can compare against
// the bare constructors without caring about the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func AuthenticationRequired(format string, args ...interface{}) *Error {
	return New(KindAuthenticationRequired, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidIdentifier(format string, args ...interface{}) *Error {
	return New(KindInvalidIdentifier, format, args...)
}

func UpstreamUnavailable(format string, args ...interface{}) *Error {
	return New(KindUpstreamUnavailable, format, args...)
}

// KindOf returns the kind of err if it is an *Error, or "" otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
