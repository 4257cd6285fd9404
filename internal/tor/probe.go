package tor

import (
	"net"
	"strconv"
	"time"
)

// probeTimeout bounds a single port probe. Probes run against loopback,
// so anything slower than this means nothing is listening.
const probeTimeout = 1 * time.Second

// IsPortOpen reports whether a TCP listener is accepting connections on
// the given loopback port. A closed port is a normal result, not an
// error: the probe has no side effects and never fails.
func IsPortOpen(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close() //nolint:errcheck // Probe connection, nothing to flush
	return true
}
