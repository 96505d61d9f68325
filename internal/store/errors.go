package store

import "errors"

var (
	// ErrNotFound is returned when no account matches the query.
	ErrNotFound = errors.New("account not found")
	// ErrInvalidID is returned when an id is not a valid object id hex string.
	ErrInvalidID = errors.New("invalid account id")
)
