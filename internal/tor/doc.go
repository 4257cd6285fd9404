// Package tor manages individual Tor instances for the pool.
//
// It covers three concerns: probing whether a loopback port is accepting
// connections, launching a Tor process against a generated torrc (or via
// the embedded tornago daemon), and speaking the control-port protocol to
// request a new identity (SIGNAL NEWNYM).
//
// Design decision: the control-port conversation is implemented directly
// over TCP. The protocol for AUTHENTICATE/SIGNAL is a handful of CRLF
// lines with 250 replies, and implementing it here keeps the dependency
// surface small while supporting externally-launched instances on
// deterministic ports, which daemon-management libraries do not expose.
package tor
