// Package pool coordinates a pool of Tor instances and distributes
// caller-supplied actions across them with a bounded worker pool.
//
// A run proceeds as: environment reset, queue seeded with action indices,
// workers drain the queue. Each action maps to the instance at
// actionIndex modulo the pool size; the first worker to touch an instance
// starts it. Failed attempts rotate the instance's identity and retry up
// to the configured budget, after which the action is abandoned: logged
// and recorded, never escalated. A stop check, polled between actions,
// drains the remaining queue without executing.
//
// Design decision: execution and identity rotation for the same instance
// are serialized with a per-instance lock. The workers otherwise share
// nothing but the queue and the report, so partial failures stay local to
// one action.
package pool
