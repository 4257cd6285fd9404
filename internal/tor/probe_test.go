package tor

import (
	"net"
	"testing"
)

// TestIsPortOpen tests the loopback port probe.
func TestIsPortOpen(t *testing.T) {
	t.Parallel()

	t.Run("open port returns true", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close() //nolint:errcheck // Test listener

		port := ln.Addr().(*net.TCPAddr).Port
		if !IsPortOpen(port) {
			t.Errorf("IsPortOpen(%d) = false, want true (listener active)", port)
		}
	})

	t.Run("closed port returns false", func(t *testing.T) {
		t.Parallel()

		// Bind and immediately close to find a port with nothing listening.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		port := ln.Addr().(*net.TCPAddr).Port
		if err := ln.Close(); err != nil {
			t.Fatalf("failed to close listener: %v", err)
		}

		if IsPortOpen(port) {
			t.Errorf("IsPortOpen(%d) = true, want false (nothing listening)", port)
		}
	})
}
