// Package errx carries the error model every bounded context shares:
// typed errors with a stable code, an HTTP status, and free-form detail
// pairs, plus a per-context registry of known codes.
package errx

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is the error value the service passes across layers. The zero
// Details map is lazily created by WithDetail.
type Error struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Type       Type                   `json:"type"`
	HTTPStatus int                    `json:"http_status"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail attaches one key/value pair and returns e for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails attaches a batch of pairs.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// MarshalJSON adds the rendered error string next to the struct fields
// so JSON consumers see the wrapped cause too.
func (e *Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return json.Marshal(&struct {
		*plain
		Rendered string `json:"error,omitempty"`
	}{plain: (*plain)(e), Rendered: e.Error()})
}

// New builds an ad hoc error of the given type. Prefer registry codes
// for errors callers need to branch on.
func New(message string, errType Type) *Error {
	return &Error{
		Code:       string(errType),
		Message:    message,
		Type:       errType,
		HTTPStatus: defaultStatus(errType),
	}
}

// Wrap layers a message over err. When err already is an *Error its
// code, status, and details survive the wrap so taxonomy checks still
// match after re-wrapping.
func Wrap(err error, message string, errType Type) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if errors.As(err, &inner) {
		return &Error{
			Code:       inner.Code,
			Message:    message,
			Type:       errType,
			HTTPStatus: inner.HTTPStatus,
			Details:    inner.Details,
			Err:        err,
		}
	}
	return &Error{
		Code:       string(errType),
		Message:    message,
		Type:       errType,
		HTTPStatus: defaultStatus(errType),
		Err:        err,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, errType Type, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...), errType)
}

// Is and As re-export the stdlib matchers so call sites need only one
// errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }
