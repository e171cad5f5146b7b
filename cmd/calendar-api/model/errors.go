package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingField    = fmt.Errorf("%w: missing field", ErrInvalidArgument)
	ErrInvalidBody     = errors.New("Invalid JSON body")
	ErrNotFound        = errors.New("Event not found")
	ErrConflict        = errors.New("Event already exists")
	ErrStaleEvent      = errors.New("Event was modified concurrently")
)

// FieldError is a validation failure tied to one input field.
type FieldError struct {
	Field string
	Msg   string
	Kind  error
}

func (e *FieldError) Error() string { return e.Msg }

func (e *FieldError) Unwrap() error { return e.Kind }

func invalidField(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Msg: fmt.Sprintf(format, args...), Kind: ErrInvalidArgument}
}

func missingField(field string) *FieldError {
	return &FieldError{Field: field, Msg: fmt.Sprintf("Missing required field: %s", field), Kind: ErrMissingField}
}
