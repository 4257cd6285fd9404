// Package config holds the pool configuration for torsel.
//
// Configuration is immutable for the duration of a run. It is populated
// from CLI flags and optionally from a YAML file (.torsel), then passed
// through the application via dependency injection rather than global state.
package config
