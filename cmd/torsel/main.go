// Package main provides the entry point for the torsel CLI.
//
// Torsel manages a pool of Tor instances and distributes actions across
// them, rotating each instance's identity when an action fails.
//
// Usage:
//
//	torsel run --actions 10 --url https://check.torproject.org/
//	torsel clean
//
// See --help for all available options.
package main

// main is the entry point for torsel.
func main() {
	Execute()
}
