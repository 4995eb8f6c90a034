package domain

import "errors"

var (
	// ErrNotFound is returned when something is not found
	ErrNotFound = errors.New("item not found")
	ErrConflict = errors.New("item already exists")

	ErrInvalidLimit         = errors.New("limit must be a positive integer")
	ErrInvalidCursor        = errors.New("invalid page cursor")
	ErrMalformedSpec        = errors.New("malformed application spec")
	ErrStreamingUnsupported = errors.New("gateway does not support streaming")
	ErrMissingApplicationID = errors.New("missing application id")
)
