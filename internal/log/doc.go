// Package log provides secure structured logging for torsel.
//
// The pool logs every create/rotate/retry/cleanup step, and some of those
// records can carry control-channel credentials or session cookies supplied
// by user actions. RedactingHandler wraps any slog.Handler and masks such
// attributes before they reach the underlying handler, so components can
// log freely without auditing every call site.
package log
