// Package model defines the value types shared across torsel components.
//
// The central types are ActionResult, which records how a single action
// fared (succeeded, abandoned after retries, or skipped by an early stop),
// and RunReport, which aggregates the results of one pool run.
//
// Design decision: outcomes are explicit values rather than log lines only.
// A run always completes even when individual actions fail, so callers need
// a structured result collection they can inspect and test against.
package model
