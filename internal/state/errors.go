package state

import "errors"

// Sentinel errors for precondition violations. All failures are local and
// synchronous; callers decide whether to abort or skip.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidPrice  = errors.New("invalid price")
	ErrNotFound      = errors.New("vault not found")
)
