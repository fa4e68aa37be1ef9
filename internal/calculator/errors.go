package calculator

import (
	"errors"
	"fmt"
)

// Kind classifies a calculator failure.
type Kind string

const (
	KindInvalidType  Kind = "invalid_type"
	KindInvalidRange Kind = "invalid_range"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindEmptyOrder   Kind = "empty_order"
)

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidType  = &Error{Kind: KindInvalidType, Message: "invalid type"}
	ErrInvalidRange = &Error{Kind: KindInvalidRange, Message: "value out of range"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflicting item"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "item not found"}
	ErrEmptyOrder   = &Error{Kind: KindEmptyOrder, Message: "order is empty"}
)

// Error is returned by every failing calculator operation.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict)
// holds for every conflict regardless of field or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of err, or "" when err is not a calculator error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newTypeError(field, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidType, Field: field, Message: fmt.Sprintf(format, args...)}
}

func newRangeError(field, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidRange, Field: field, Message: fmt.Sprintf(format, args...)}
}
