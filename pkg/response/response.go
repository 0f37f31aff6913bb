package response

import (
	"errors"
)

// Error carries the HTTP status a failure maps to alongside a stable code
// clients can branch on.
type Error struct {
	Code   int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason && e.Err.Error() == t.Err.Error()
}

func NewError(code int, reason string, msg string) error {
	return &Error{Code: code, Reason: reason, Err: errors.New(msg)}
}
