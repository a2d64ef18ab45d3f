package ledger

import "errors"

// Failure taxonomy of the ledger. Callers branch with errors.Is; every
// returned error wraps exactly one of these sentinels plus a human-readable
// reason.
var (
	// ErrInvalidArgument marks bad input shape or range, rejected before any
	// mutation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a reference to a position that is not open.
	ErrNotFound = errors.New("position not found")

	// ErrMissingPrice marks an auto-execute decision with no usable price.
	ErrMissingPrice = errors.New("price unavailable")

	// ErrPersistence marks an unreadable or unwritable durable store. The
	// on-disk state is left untouched.
	ErrPersistence = errors.New("persistence failure")
)
