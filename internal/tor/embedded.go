package tor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/nao1215/tornago"
)

// EmbeddedLauncher creates pool instances backed by tornago-managed Tor
// daemons instead of executing an external tor binary.
//
// Embedded instances differ from exec-launched ones in two ways: the OS
// assigns their ports (the deterministic base+stride derivation does not
// apply), and Create blocks until the daemon has bootstrapped, so no
// settling delay is needed before first use.
//
// Note: bootstrapping an embedded daemon takes 1-3 minutes as it must
// download directory information and build initial circuits.
type EmbeddedLauncher struct {
	// startupTimeout is the maximum time to wait for Tor to bootstrap.
	startupTimeout time.Duration
}

// EmbeddedLauncherOption configures an EmbeddedLauncher.
type EmbeddedLauncherOption func(*EmbeddedLauncher)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedLauncherOption {
	return func(l *EmbeddedLauncher) {
		l.startupTimeout = timeout
	}
}

// NewEmbeddedLauncher creates a tornago-backed launcher.
func NewEmbeddedLauncher(opts ...EmbeddedLauncherOption) *EmbeddedLauncher {
	l := &EmbeddedLauncher{
		startupTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create launches an embedded Tor daemon for the instance at index.
// Ports are OS-assigned; ":0" lets tornago pick free listeners.
func (l *EmbeddedLauncher) Create(ctx context.Context, index int) (*Instance, error) {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(l.startupTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	// Blocks until Tor is fully bootstrapped or times out.
	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	// Honor cancellation that arrived during the blocking startup.
	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return nil, ctx.Err()
	default:
	}

	socksPort, err := addrPort(process.SocksAddr())
	if err != nil {
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to parse embedded SOCKS address: %w", err)
	}
	controlPort, err := addrPort(process.ControlAddr())
	if err != nil {
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("failed to parse embedded control address: %w", err)
	}

	return &Instance{
		Index:       index,
		SocksPort:   socksPort,
		ControlPort: controlPort,
		stop:        process.Stop,
	}, nil
}

// addrPort extracts the numeric port from a host:port address.
func addrPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
