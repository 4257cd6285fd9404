// Package history persists run and per-action outcomes to SQLite.
//
// The pool deliberately never surfaces action failures as errors, so the
// history database is how operators answer "which actions were silently
// abandoned last night". One database file holds all runs for the host,
// stored under the XDG data directory by default.
package history
