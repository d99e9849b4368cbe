package errors

import "errors"

var (
	ErrNotFound      = errors.New("booking not found")
	ErrAlreadyBooked = errors.New("load already has a booking")
)
