package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and identify exactly what is
// wrong with the configuration.
//
// Design decision: package-level sentinel errors rather than error values
// created inside Validate(). Callers can match with errors.Is while still
// getting a human-readable message.
var (
	// ErrInvalidInstanceCount is returned when TotalInstances is below 1.
	// A pool with no instances has nowhere to route actions.
	ErrInvalidInstanceCount = errors.New("invalid instance count: must be at least 1")

	// ErrInvalidWorkerCount is returned when MaxWorkers is below 1.
	// Zero workers would mean the queue never drains.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be at least 1")

	// ErrInvalidPortStride is returned when PortStride is below 2.
	// Each instance needs room for both a SOCKS and a control port.
	ErrInvalidPortStride = errors.New("invalid port stride: must be at least 2")

	// ErrInvalidMaxAttempts is returned when the retry budget is below 1.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

	// ErrPortRangeOverflow is returned when a derived port for the highest
	// instance index would fall outside the valid TCP port range.
	ErrPortRangeOverflow = errors.New("port range overflow: derived port exceeds 65535 or base below 1")

	// ErrPortCollision is returned when a derived SOCKS port equals a
	// derived control port. The two sequences must never meet.
	ErrPortCollision = errors.New("port collision: SOCKS and control port ranges overlap")
)
