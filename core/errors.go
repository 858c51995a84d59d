package core

import "github.com/pkg/errors"

// FieldError reports a validation failure on one input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a request-level validation failure, optionally broken
// down per field. The HTTP layer renders the field map when present.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// shutdown marks an error the server cannot recover from.
type shutdown struct {
	msg string
}

func NewShutdownError(msg string) error {
	return &shutdown{msg: msg}
}

func (s *shutdown) Error() string { return s.msg }

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
