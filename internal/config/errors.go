package config

import (
	"errors"
	"fmt"
)

// Error marks a configuration-level failure: a unit of work (or the whole run)
// cannot start. Callers never retry it.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// Invalidf returns a *Error with a formatted message.
func Invalidf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err (or anything it wraps) is a *Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
