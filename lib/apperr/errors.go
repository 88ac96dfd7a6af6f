// Package apperr carries coded errors from the core to the transport layer.
package apperr

import (
	"errors"
	"fmt"
)

type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition, Message: "invalid transition"}
	ErrAlreadyRegistered = &Error{Code: CodeAlreadyRegistered, Message: "already registered"}
	ErrDateOverlap       = &Error{Code: CodeDateOverlap, Message: "date overlap"}
	ErrEventFull         = &Error{Code: CodeEventFull, Message: "event full"}
	ErrStorage           = &Error{Code: CodeStorage, Message: "storage failure"}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "forbidden"}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Storage wraps a persistence failure. Errors that already carry a code pass through.
func Storage(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Code: CodeStorage, Message: op, Cause: cause}
}

// WithMeta returns a copy of e with key set in its metadata.
func (e *Error) WithMeta(key, value string) *Error {
	c := *e
	c.Metadata = make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		c.Metadata[k] = v
	}
	c.Metadata[key] = value
	return &c
}

// CodeOf returns the code carried by err; uncoded errors are storage failures.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

// MessageOf returns the caller-facing message; causes of storage failures are not exposed.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Code == CodeStorage {
			return "storage unavailable, retry later"
		}
		return e.Message
	}
	return "storage unavailable, retry later"
}

func IsBusiness(err error) bool {
	return CodeOf(err).Business()
}
