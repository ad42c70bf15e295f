package repository

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound    = errors.New("assessment not found")
	ErrDuplicateID = errors.New("duplicate assessment id")
	ErrCorrupt     = errors.New("stored value is not valid JSON")
	ErrClosed      = errors.New("store closed")
)
