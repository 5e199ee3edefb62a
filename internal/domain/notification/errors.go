package notification

import "errors"

var (
	// ErrNotFound is returned when the notification doesn't exist or belongs to someone else
	ErrNotFound = errors.New("notification not found")
)
