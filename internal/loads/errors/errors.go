package errors

import "errors"

var (
	ErrNotFound = errors.New("load not found")

	// ErrStatusConflict means the compare-and-swap precondition failed: the
	// load's current status was not the expected one.
	ErrStatusConflict = errors.New("load status changed concurrently")
)
