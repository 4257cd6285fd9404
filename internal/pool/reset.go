package pool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nao1215/torsel/internal/tor"
)

// Reset forcibly clears leftovers from previous runs: stale tor
// processes, ports they still hold, and the per-run data root.
//
// Every step is best-effort and Reset never fails. Its only job is to
// maximize the chance that the instances about to be created can bind
// their ports. It is idempotent and safe to call when nothing is running.
func (p *Pool) Reset(ctx context.Context) {
	p.logger.Info("cleaning up previous processes, files, and ports")

	// Kill by process name; the process may well not exist.
	name := filepath.Base(p.cfg.TorPath)
	_ = exec.CommandContext(ctx, "killall", name).Run() //nolint:errcheck // Best effort

	// Give the OS a moment to release the killed processes' ports.
	p.settle(ctx, p.cfg.KillSettle)

	// Anything still holding an instance port gets evicted.
	for i := range p.cfg.TotalInstances {
		for _, port := range []int{p.cfg.SocksPort(i), p.cfg.ControlPort(i)} {
			if tor.IsPortOpen(port) {
				p.logger.Debug("freeing port", "port", port)
				_ = exec.CommandContext(ctx, "fuser", "-k", fmt.Sprintf("%d/tcp", port)).Run() //nolint:errcheck // Best effort
			}
		}
	}

	if err := os.RemoveAll(p.cfg.DataDir); err != nil {
		p.logger.Warn("failed to remove data root", "dir", p.cfg.DataDir, "error", err)
	}

	// Longer settle so freshly freed ports are reliably rebindable.
	p.settle(ctx, p.cfg.ResetSettle)

	p.logger.Info("cleanup completed")
}

// settle sleeps for d but wakes early on context cancellation.
func (p *Pool) settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
