package model

import "time"

// ActionStatus represents the terminal state of a single action.
type ActionStatus int

const (
	// StatusSucceeded indicates the user function returned without error
	// within the retry budget.
	StatusSucceeded ActionStatus = iota

	// StatusAbandoned indicates every attempt failed and the action was
	// given up on. This is a best-effort policy, not a run failure: the
	// action is logged and recorded, never escalated.
	StatusAbandoned

	// StatusSkipped indicates the action was drained from the queue
	// without executing because a stop condition fired first.
	StatusSkipped
)

// String returns a human-readable name for the status.
func (s ActionStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusAbandoned:
		return "abandoned"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ActionResult records the outcome of one action.
//
// Exactly one ActionResult exists per dequeued action, including actions
// discarded on the stop path. This is the pool's completion accounting.
type ActionResult struct {
	// ActionIndex identifies the action in [0, numActions).
	ActionIndex int `json:"action_index"`

	// InstanceIndex is the instance the action was assigned to,
	// always ActionIndex modulo the pool's instance count.
	InstanceIndex int `json:"instance_index"`

	// Status is the terminal state of the action.
	Status ActionStatus `json:"status"`

	// Attempts is the number of times the user function was invoked.
	// Zero for skipped actions, at most the pool's retry budget otherwise.
	Attempts int `json:"attempts"`

	// Rotations is the number of identity rotations triggered by this
	// action's failures. No rotation follows the final failed attempt,
	// so Rotations is always Attempts-1 for abandoned actions.
	Rotations int `json:"rotations"`

	// LastError holds the message of the last attempt's error, empty on
	// success or skip. Stored as a string so results marshal cleanly.
	LastError string `json:"last_error,omitempty"`

	// Elapsed is the wall time spent on the action across all attempts,
	// including rotation settle delays.
	Elapsed time.Duration `json:"elapsed"`
}
