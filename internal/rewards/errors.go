package rewards

import (
	"errors"
)

var (
	// ErrInvalidAmount rejects non-positive credits.
	ErrInvalidAmount = errors.New("credit amount must be positive")

	// ErrConflict is returned when the claim compare-and-swap lost the race
	// on every retry. Callers may retry the whole request.
	ErrConflict = errors.New("claim conflict, retries exhausted")
)
