package tor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/nao1215/torsel/internal/config"
)

// Instance is one running Tor process with its own SOCKS and control
// ports and an exclusive data directory.
//
// Instances are created lazily by the pool the first time an action maps
// to their index, and live until Stop is called or the next environment
// reset kills the process tree.
type Instance struct {
	// Index is the instance's stable identity within the pool.
	Index int

	// SocksPort and ControlPort are the instance's listeners. For
	// exec-launched instances they are derived from the configured base
	// ports; for embedded instances the OS assigns them.
	SocksPort   int
	ControlPort int

	// DataDir is the instance's exclusive on-disk state directory.
	DataDir string

	stop func() error
}

// SocksAddr returns the instance's SOCKS5 address in host:port form.
func (i *Instance) SocksAddr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(i.SocksPort))
}

// Stop terminates the instance's process. Safe to call more than once;
// calls after the first are no-ops.
func (i *Instance) Stop() error {
	if i.stop == nil {
		return nil
	}
	stop := i.stop
	i.stop = nil
	return stop()
}

// Launcher creates pool instances. Two implementations exist: ExecLauncher
// runs an external tor binary on deterministic ports, and EmbeddedLauncher
// delegates to tornago.
type Launcher interface {
	// Create launches the instance at the given index. The returned
	// instance's process has been started but is not necessarily ready
	// to serve; exec-launched instances need a settling delay before
	// first use.
	Create(ctx context.Context, index int) (*Instance, error)
}

// ExecLauncher starts Tor instances by executing an external tor binary
// against a generated torrc.
type ExecLauncher struct {
	cfg    *config.Config
	logger *slog.Logger
}

// ExecLauncherOption configures an ExecLauncher.
type ExecLauncherOption func(*ExecLauncher)

// WithExecLogger sets the launcher's logger.
func WithExecLogger(logger *slog.Logger) ExecLauncherOption {
	return func(l *ExecLauncher) {
		l.logger = logger
	}
}

// NewExecLauncher creates a launcher for the external tor binary named in
// the configuration.
func NewExecLauncher(cfg *config.Config, opts ...ExecLauncherOption) *ExecLauncher {
	l := &ExecLauncher{cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Create computes the instance's ports, writes its torrc, and starts the
// tor process detached in its own session. It returns once the process
// has been started; it does not wait for Tor to bootstrap, because Tor
// offers no readiness signal short of polling. Callers apply a settling
// delay before first use.
func (l *ExecLauncher) Create(ctx context.Context, index int) (*Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(l.cfg.TorPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTorNotFound, l.cfg.TorPath)
	}

	inst := &Instance{
		Index:       index,
		SocksPort:   l.cfg.SocksPort(index),
		ControlPort: l.cfg.ControlPort(index),
		DataDir:     l.cfg.InstanceDir(index),
	}

	if err := os.MkdirAll(inst.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create instance directory: %w", err)
	}

	torrcPath := filepath.Join(inst.DataDir, "torrc")
	if err := os.WriteFile(torrcPath, []byte(torrcContent(inst)), 0600); err != nil {
		return nil, fmt.Errorf("failed to write torrc: %w", err)
	}

	// Detach into its own session so the instance outlives this call and
	// is only reaped by Stop or the next environment reset. Deliberately
	// not CommandContext: context cancellation must not tear down a
	// long-lived instance mid-run.
	cmd := exec.Command(l.cfg.TorPath, "-f", torrcPath) //nolint:gosec // TorPath comes from configuration
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start tor: %w", err)
	}

	inst.stop = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := cmd.Process.Kill()
		_ = cmd.Wait() //nolint:errcheck // Reap the killed child
		return err
	}

	l.logger.Info("tor instance created",
		"instance", index,
		"socks_port", inst.SocksPort,
		"ctrl_port", inst.ControlPort,
		"data_dir", inst.DataDir,
	)

	return inst, nil
}

// torrcContent renders the minimal per-instance configuration consumed by
// the spawned tor process.
func torrcContent(inst *Instance) string {
	return fmt.Sprintf("SocksPort %d\nControlPort %d\nDataDirectory %s\n",
		inst.SocksPort, inst.ControlPort, inst.DataDir)
}
