package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrOutOfRange = errors.New("survey input out of range")
)
