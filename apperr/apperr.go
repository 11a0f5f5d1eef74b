// Package apperr is the error taxonomy shared by the store, the messaging
// core and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Validation reports a missing or malformed client supplied field.
func Validation(field, message string) error {
	return &Error{Code: CodeInvalidArgument, Message: message, Field: field}
}

func NotFound(message string) error {
	return New(CodeNotFound, message)
}

func AlreadyExists(message string) error {
	return New(CodeAlreadyExists, message)
}

func Unauthenticated(message string) error {
	return New(CodeUnauthenticated, message)
}

func Forbidden(message string) error {
	return New(CodePermissionDenied, message)
}

// Store wraps a persistence failure. The cause is kept for logs and never
// shown to clients.
func Store(op string, cause error) error {
	return Wrap(CodeInternal, op, cause)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, CodeUnknown for
// foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUnknown
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
