package config

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Port defaults start from Tor's conventional 9050 SOCKS port, with the
// control range based at 9151 so the two strided sequences never collide.
// Settle durations compensate for operations whose completion cannot be
// observed directly: Tor bootstrap after process start and circuit rebuild
// after a NEWNYM signal.
const (
	// DefaultTotalInstances is the number of Tor processes in the pool.
	DefaultTotalInstances = 10

	// DefaultMaxWorkers caps concurrent action execution. The effective
	// worker count for a run is min(numActions, MaxWorkers).
	DefaultMaxWorkers = 5

	// DefaultSocksBasePort is the SOCKS port of instance 0. Instance i
	// listens on SocksBasePort + i*PortStride.
	DefaultSocksBasePort = 9050

	// DefaultControlBasePort is the control port of instance 0.
	DefaultControlBasePort = 9151

	// DefaultPortStride is the spacing between consecutive instances'
	// ports. It must be at least 2 so a SOCKS and a control port fit
	// per instance without colliding.
	DefaultPortStride = 10

	// DefaultTorPath is where the external tor binary usually lives.
	DefaultTorPath = "/usr/bin/tor"

	// DefaultMaxAttempts is the per-action retry budget. Each failed
	// attempt except the last triggers an identity rotation.
	DefaultMaxAttempts = 5

	// DefaultSessionTimeout bounds each request made through a session.
	// Tor adds multiple relay hops, so this is generous.
	DefaultSessionTimeout = 120 * time.Second

	// DefaultCreateSettle is how long a worker waits after launching an
	// instance before first use. Tor needs a few seconds to open its
	// listeners and build initial circuits; there is no readiness signal
	// short of polling the ports.
	DefaultCreateSettle = 5 * time.Second

	// DefaultRotationSettle is how long to wait after SIGNAL NEWNYM so
	// the fresh circuit is actually in effect for the next attempt.
	DefaultRotationSettle = 5 * time.Second

	// DefaultKillSettle is the pause after terminating stale processes
	// during environment reset, letting the OS release their ports.
	DefaultKillSettle = 1 * time.Second

	// DefaultResetSettle is the pause at the end of environment reset so
	// freshly freed ports are reliably rebindable.
	DefaultResetSettle = 3 * time.Second

	// AppName is used for XDG directory paths.
	AppName = "torsel"
)

// Config holds all pool configuration. It is immutable for the run.
//
// Design decision: a single flat struct instead of nested sub-configs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// TotalInstances is the number of Tor instances in the pool.
	// Actions are assigned by actionIndex modulo TotalInstances.
	TotalInstances int

	// MaxWorkers is the maximum number of concurrent workers draining
	// the action queue.
	MaxWorkers int

	// SocksBasePort and ControlBasePort anchor the deterministic port
	// derivation: instance i uses base + i*PortStride.
	SocksBasePort   int
	ControlBasePort int

	// PortStride is the port spacing between instances. Must be >= 2.
	PortStride int

	// TorPath is the tor executable launched per instance. Ignored when
	// Embedded is true.
	TorPath string

	// DataDir is the per-run data root. Each instance gets an exclusive
	// subdirectory holding its torrc and Tor state. Removed wholesale by
	// environment reset.
	DataDir string

	// ControlPassword, when set, is sent with AUTHENTICATE on the control
	// channel. Empty means null authentication, which matches a torrc
	// with no auth method configured.
	ControlPassword string

	// Embedded selects the tornago-managed launcher instead of executing
	// an external tor binary. Embedded instances get OS-assigned ports
	// and block until bootstrapped, so no create settle applies.
	Embedded bool

	// Headless is passed through to the session factory for driver-backed
	// implementations. The default HTTP factory has no use for it.
	Headless bool

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// MaxAttempts is the per-action retry budget.
	MaxAttempts int

	// SessionTimeout bounds requests made through a pool session.
	SessionTimeout time.Duration

	// Settle durations. Exposed so tests can shrink them.
	CreateSettle   time.Duration
	RotationSettle time.Duration
	KillSettle     time.Duration
	ResetSettle    time.Duration
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		TotalInstances:  DefaultTotalInstances,
		MaxWorkers:      DefaultMaxWorkers,
		SocksBasePort:   DefaultSocksBasePort,
		ControlBasePort: DefaultControlBasePort,
		PortStride:      DefaultPortStride,
		TorPath:         DefaultTorPath,
		DataDir:         filepath.Join("/tmp", "tor_profiles"),
		MaxAttempts:     DefaultMaxAttempts,
		SessionTimeout:  DefaultSessionTimeout,
		CreateSettle:    DefaultCreateSettle,
		RotationSettle:  DefaultRotationSettle,
		KillSettle:      DefaultKillSettle,
		ResetSettle:     DefaultResetSettle,
	}
}

// Validate checks the configuration for internal consistency.
// It returns sentinel errors from errors.go so callers can match with
// errors.Is.
func (c *Config) Validate() error {
	if c.TotalInstances < 1 {
		return ErrInvalidInstanceCount
	}
	if c.MaxWorkers < 1 {
		return ErrInvalidWorkerCount
	}
	if c.PortStride < 2 {
		return ErrInvalidPortStride
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	// Both port ranges must stay below 65536 for every instance.
	highest := c.TotalInstances - 1
	if c.SocksBasePort < 1 || c.SocksPort(highest) > 65535 {
		return ErrPortRangeOverflow
	}
	if c.ControlBasePort < 1 || c.ControlPort(highest) > 65535 {
		return ErrPortRangeOverflow
	}

	// The SOCKS and control sequences share a stride, so they either
	// never meet or coincide exactly; reject the latter.
	for i := range c.TotalInstances {
		for j := range c.TotalInstances {
			if c.SocksPort(i) == c.ControlPort(j) {
				return ErrPortCollision
			}
		}
	}

	return nil
}

// SocksPort returns the SOCKS port of the instance at index.
func (c *Config) SocksPort(index int) int {
	return c.SocksBasePort + index*c.PortStride
}

// ControlPort returns the control port of the instance at index.
func (c *Config) ControlPort(index int) int {
	return c.ControlBasePort + index*c.PortStride
}

// InstanceDir returns the exclusive data directory of the instance at index.
func (c *Config) InstanceDir(index int) string {
	return filepath.Join(c.DataDir, "tor"+strconv.Itoa(index))
}

// XDGDataDir returns the app data directory (history database location).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
