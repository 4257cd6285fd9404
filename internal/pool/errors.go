package pool

import "errors"

// Run input errors. Action failures never surface as errors; these cover
// only inputs the pool cannot work with at all.
var (
	// ErrInvalidActionCount is returned when Run is asked for a negative
	// number of actions.
	ErrInvalidActionCount = errors.New("invalid action count: must be non-negative")

	// ErrNilAction is returned when Run is given a nil action function.
	ErrNilAction = errors.New("nil action function")
)
