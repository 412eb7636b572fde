package core

import "github.com/pkg/errors"

// FieldError is a problem with one named input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client error: the request can't be served as sent.
// Fields, when present, are reported per field; otherwise Err is the message.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return NewValidationError(nil, FieldError{Field: field, Error: msg})
}

func (err ValidationError) Error() string {
	switch {
	case err.Err != nil:
		return err.Err.Error()
	case len(err.Fields) > 0:
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return "invalid input"
}

func (err ValidationError) Unwrap() error { return err.Err }

// FieldMap returns the field errors keyed by field, nil without any.
// A repeated field keeps its first message.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		if _, ok := m[f.Field]; !ok {
			m[f.Field] = f.Error
		}
	}
	return m
}

// ShutdownError asks the server to stop: it can't keep serving requests safely.
type ShutdownError struct {
	Reason string
	Err    error
}

func NewShutdownError(reason string, err error) error {
	return &ShutdownError{Reason: reason, Err: err}
}

func (s ShutdownError) Error() string {
	if s.Err == nil {
		return s.Reason
	}
	return s.Reason + ": " + s.Err.Error()
}

func (s ShutdownError) Unwrap() error { return s.Err }

func IsShutdown(err error) bool {
	var s *ShutdownError
	return errors.As(err, &s)
}
