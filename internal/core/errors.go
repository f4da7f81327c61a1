package core

import "errors"

var (
	// ErrNotFound signals an id-based lookup that missed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput signals a missing or malformed caller-supplied field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition signals a status change out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
)
