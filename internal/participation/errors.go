package participation

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes domain errors.
type ErrorKind string

const (
	// KindNotFound covers unknown events, users and requests, and resources
	// the caller does not own (reported as missing to avoid leaking existence).
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindConflict covers state that forbids the operation: duplicate live
	// requests, a full event, self-participation, unpublished events and
	// batches with foreign or non-pending requests.
	KindConflict ErrorKind = "CONFLICT"

	// KindValidation covers malformed input.
	KindValidation ErrorKind = "VALIDATION"
)

// Error is a domain failure with a kind and a human-readable reason.
type Error struct {
	Kind    ErrorKind
	Message string

	// Details carries optional structured context (ids, counts).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// With returns a copy of e with an extra detail attached.
func (e *Error) With(key, value string) *Error {
	out := &Error{Kind: e.Kind, Message: e.Message, Details: make(map[string]string, len(e.Details)+1)}
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return out
}

// KindOf returns the kind of a domain error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsNotFound reports whether err (or anything it wraps) is a NotFound error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err (or anything it wraps) is a Conflict error.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsValidation reports whether err (or anything it wraps) is a Validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError creates a Conflict error.
func NewConflictError(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError creates a Validation error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewLimitReachedError is returned when an event has no capacity left.
func NewLimitReachedError(limit, confirmed int) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: "participant limit reached",
		Details: map[string]string{
			"limit":     fmt.Sprintf("%d", limit),
			"confirmed": fmt.Sprintf("%d", confirmed),
		},
	}
}
