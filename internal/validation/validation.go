// Package validation defines the client-side validation failures. They are
// resolved locally and never reach the network.
package validation

import (
	"errors"
	"strings"
)

// Code identifies a validation rule.
type Code string

const (
	MissingFields       Code = "missing_fields"
	InvalidPhoneFormat  Code = "invalid_phone_format"
	TooManyImages       Code = "too_many_images"
	InvalidPrice        Code = "invalid_price"
	UnknownCity         Code = "unknown_city"
	UnsupportedFileType Code = "unsupported_file_type"
)

// Sentinels for errors.Is.
var (
	ErrMissingFields       = &Error{Code: MissingFields}
	ErrInvalidPhoneFormat  = &Error{Code: InvalidPhoneFormat}
	ErrTooManyImages       = &Error{Code: TooManyImages}
	ErrInvalidPrice        = &Error{Code: InvalidPrice}
	ErrUnknownCity         = &Error{Code: UnknownCity}
	ErrUnsupportedFileType = &Error{Code: UnsupportedFileType}
)

// Error is one failed rule. Field is empty for form-level errors.
type Error struct {
	Code    Code
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errors collects every rule that failed in one pass.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (es Errors) Unwrap() []error {
	errs := make([]error, 0, len(es))
	for _, e := range es {
		errs = append(errs, e)
	}
	return errs
}

// Field returns the first error for field, or nil.
func (es Errors) Field(field string) *Error {
	for _, e := range es {
		if e.Field == field {
			return e
		}
	}
	return nil
}

// Has reports whether err contains a failure with code.
func Has(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}
