package local

import "errors"

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned for IDs that would escape their collection
	ErrInvalidID = errors.New("invalid record id")
)
