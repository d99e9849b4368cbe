package errors

import "errors"

var (
	ErrNotFound = errors.New("negotiation session not found")

	// ErrOpenSessionExists means the load already has a non-terminal session.
	ErrOpenSessionExists = errors.New("load already has an active negotiation session")
)
