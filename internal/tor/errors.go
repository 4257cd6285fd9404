package tor

import "errors"

// Instance and control-channel errors.
//
// Design decision: specific sentinel errors rather than generic wrapping,
// so callers can distinguish failure modes with errors.Is. The pool treats
// every rotation error as "rotation skipped" rather than a run failure,
// but logs differ by cause.
var (
	// ErrControlUnavailable is returned when the control port is not
	// accepting connections. The instance may still be bootstrapping,
	// or it may never have come up.
	ErrControlUnavailable = errors.New("control port is not accepting connections")

	// ErrControlAuthFailed is returned when the control port rejects
	// the AUTHENTICATE command.
	ErrControlAuthFailed = errors.New("control port authentication failed")

	// ErrControlProtocol is returned when the control port replies with
	// something other than a 250 status to a command.
	ErrControlProtocol = errors.New("unexpected control port reply")

	// ErrAlreadyStarted is returned when Create is called for an
	// instance index that already has a running process.
	ErrAlreadyStarted = errors.New("instance already started")

	// ErrTorNotFound is returned when the configured tor executable
	// does not exist.
	ErrTorNotFound = errors.New("tor executable not found")
)
