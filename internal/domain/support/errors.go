package support

import "errors"

var (
	// ErrNotFound is returned when the ticket doesn't exist
	ErrNotFound = errors.New("ticket not found")

	// ErrClosed is returned when replying to a closed ticket
	ErrClosed = errors.New("ticket is closed")

	// ErrInvalidPriority is returned for an unknown priority value
	ErrInvalidPriority = errors.New("invalid priority: must be low, medium or high")

	// ErrInvalidStatus is returned for an unknown status value
	ErrInvalidStatus = errors.New("invalid status")

	ErrInternal = errors.New("internal error")
)
