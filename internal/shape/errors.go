package shape

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape is returned when a footprint breaks a Shape invariant.
	ErrInvalidShape = errors.New("invalid shape")
	// ErrUnknownOrientation is returned for orientation tokens other than
	// horizontal or vertical.
	ErrUnknownOrientation = errors.New("unknown orientation")
)

// InputError reports a rejected input value. It wraps one of the package
// sentinels so callers can match with errors.Is.
type InputError struct {
	Field  string
	Value  interface{}
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func invalid(field string, value interface{}, reason string) error {
	return &InputError{Field: field, Value: value, Reason: reason, Err: ErrInvalidShape}
}
