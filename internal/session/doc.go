// Package session builds proxy-aware sessions for pool actions and runs
// a single action against one.
//
// The Factory interface is the boundary with the automation driver: the
// pool only asks it for a session routed through a given instance's SOCKS
// port and closes the session afterwards. The default SOCKSFactory yields
// plain HTTP sessions; a browser-driver implementation can be substituted
// without the pool knowing.
package session
