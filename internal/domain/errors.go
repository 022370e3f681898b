package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEvent signals a candidate event that matches an existing
	// one by subject, start and end.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrInvalidRange signals an end before a start, or a range query whose
	// from is after its to.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrInvalidRecurrence signals a series rule that cannot produce a valid
	// occurrence set.
	ErrInvalidRecurrence = errors.New("invalid recurrence rule")

	// ErrNotFound signals an edit target that does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrInvalidEdit signals a property value that would violate an event or
	// series invariant if applied.
	ErrInvalidEdit = errors.New("invalid edit")

	// ErrUnknownProperty signals an unrecognized property token.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidEnumValue signals an unrecognized enum literal.
	ErrInvalidEnumValue = errors.New("invalid enum value")
)

type RecurrenceError struct {
	Reason string
}

func (e RecurrenceError) Error() string {
	if e.Reason == "" {
		return ErrInvalidRecurrence.Error()
	}
	return fmt.Sprintf("%v: %s", ErrInvalidRecurrence, e.Reason)
}

func (e RecurrenceError) Unwrap() error {
	return ErrInvalidRecurrence
}
