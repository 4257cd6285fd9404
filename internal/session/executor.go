package session

import (
	"context"
	"fmt"
	"log/slog"
)

// ActionFunc is the caller-supplied logic executed once per attempt.
// The session routes through the instance the action was assigned to.
// Returning an error signals a failed attempt; the pool's retry engine
// decides what happens next.
type ActionFunc func(ctx context.Context, sess Session, actionIndex, instanceIndex int, logger *slog.Logger) error

// Executor runs one action through a freshly built session.
//
// The executor owns the session lifecycle and nothing else: any failure
// from session construction, the user function, or session disposal
// propagates to the caller unchanged in meaning. Retrying is the pool's
// job, not the executor's.
type Executor struct {
	factory Factory
	logger  *slog.Logger
}

// NewExecutor creates an executor over the given session factory.
// A nil logger falls back to slog.Default().
func NewExecutor(factory Factory, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{factory: factory, logger: logger}
}

// Execute builds a session for socksAddr, invokes fn synchronously, and
// closes the session on every path. A close error surfaces only when fn
// itself succeeded, so the original failure is never shadowed.
func (e *Executor) Execute(ctx context.Context, actionIndex, instanceIndex int, socksAddr string, fn ActionFunc) (err error) {
	sess, err := e.factory.NewSession(ctx, socksAddr)
	if err != nil {
		return fmt.Errorf("failed to build session: %w", err)
	}

	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close session: %w", cerr)
		}
	}()

	return fn(ctx, sess, actionIndex, instanceIndex, e.logger)
}
