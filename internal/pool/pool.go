package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nao1215/torsel/internal/config"
	"github.com/nao1215/torsel/internal/model"
	"github.com/nao1215/torsel/internal/session"
	"github.com/nao1215/torsel/internal/tor"
)

// newIdentityInterval spaces NEWNYM signals per instance. Tor absorbs
// signals arriving faster than roughly every ten seconds, so sending them
// more often only wastes the settle delay.
const newIdentityInterval = 10 * time.Second

// Pool owns the instance slots and runs actions across them.
//
// Design decision: the pool is an explicit value, never ambient global
// state, so multiple pools can coexist in tests. Instance records live in
// a fixed slice indexed by instance index.
type Pool struct {
	cfg      *config.Config
	logger   *slog.Logger
	launcher tor.Launcher
	factory  session.Factory
	executor *session.Executor

	// slots holds per-instance state: one-time creation, the running
	// instance, the execute/rotate lock, and the rotation limiter.
	slots []*slot
}

// slot is the per-instance-index coordination point.
type slot struct {
	// once guards instance creation: whichever worker first touches the
	// index starts it, everyone else waits for that to finish.
	once sync.Once

	// mu serializes execution and identity rotation against the same
	// instance from different workers.
	mu sync.Mutex

	// inst is the running instance, nil when creation failed.
	inst *tor.Instance

	// createErr remembers why creation failed, for logging on reuse.
	createErr error

	// limiter spaces NEWNYM signals for this instance.
	limiter *rate.Limiter
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithLauncher replaces the instance launcher. Defaults to an
// ExecLauncher over the configured tor binary, or an EmbeddedLauncher
// when the configuration selects embedded mode.
func WithLauncher(launcher tor.Launcher) Option {
	return func(p *Pool) {
		p.launcher = launcher
	}
}

// WithSessionFactory replaces the session factory handed to the task
// executor. Defaults to the SOCKS HTTP factory.
func WithSessionFactory(factory session.Factory) Option {
	return func(p *Pool) {
		p.factory = factory
	}
}

// New creates a pool over the given configuration.
func New(cfg *config.Config, opts ...Option) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.launcher == nil {
		if cfg.Embedded {
			p.launcher = tor.NewEmbeddedLauncher()
		} else {
			p.launcher = tor.NewExecLauncher(cfg, tor.WithExecLogger(p.logger))
		}
	}
	if p.factory == nil {
		p.factory = session.NewSOCKSFactory(session.Options{
			Timeout:  cfg.SessionTimeout,
			Headless: cfg.Headless,
		})
	}
	p.executor = session.NewExecutor(p.factory, p.logger)

	p.slots = make([]*slot, cfg.TotalInstances)
	for i := range p.slots {
		p.slots[i] = &slot{
			limiter: rate.NewLimiter(rate.Every(newIdentityInterval), 1),
		}
	}

	return p, nil
}

// RunOption configures a single run.
type RunOption func(*runOptions)

type runOptions struct {
	stopCheck func() bool
	skipReset bool
}

// WithStopCheck installs a stop condition. It is polled once per worker
// after each completed action; when it returns true, the worker drains
// the remaining queue without executing and exits. It must be
// side-effect-free.
func WithStopCheck(check func() bool) RunOption {
	return func(o *runOptions) {
		o.stopCheck = check
	}
}

// WithoutReset skips the environment reset at the start of the run.
// Useful when the caller already reset, and for embedded instances whose
// ports are not derivable ahead of time.
func WithoutReset() RunOption {
	return func(o *runOptions) {
		o.skipReset = true
	}
}

// Run resets the environment, seeds the queue with numActions action
// indices, and drains it with min(numActions, MaxWorkers) workers. It
// blocks until every worker finishes and returns a report with exactly
// one result per action.
//
// Individual action failures never surface here: abandoned actions are a
// recorded policy outcome, and the returned error covers only unusable
// input. Cancelling ctx acts as a stop condition: the current action
// finishes its retry loop, then the queue drains as skipped.
func (p *Pool) Run(ctx context.Context, numActions int, fn session.ActionFunc, opts ...RunOption) (*model.RunReport, error) {
	if numActions < 0 {
		return nil, ErrInvalidActionCount
	}
	if fn == nil {
		return nil, ErrNilAction
	}

	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if !ro.skipReset {
		p.Reset(ctx)
	}

	report := model.NewRunReport(p.cfg.TotalInstances, p.cfg.MaxWorkers)
	start := time.Now()

	// FIFO queue with exactly-once dequeue by channel semantics.
	tasks := make(chan int, numActions)
	for i := range numActions {
		tasks <- i
	}
	close(tasks)

	workers := min(numActions, p.cfg.MaxWorkers)

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			p.worker(ctx, tasks, report, fn, ro.stopCheck)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // Workers never return errors

	report.Elapsed = time.Since(start)

	p.logger.Info("run complete",
		"actions", numActions,
		"succeeded", report.Succeeded(),
		"abandoned", report.Abandoned(),
		"skipped", report.Skipped(),
		"elapsed", report.Elapsed,
	)

	return report, nil
}

// Shutdown stops every started instance. The environment reset at the
// start of the next run remains the recovery path for anything Shutdown
// could not reach.
func (p *Pool) Shutdown() error {
	var errs []error
	for i, s := range p.slots {
		if s.inst == nil {
			continue
		}
		if err := s.inst.Stop(); err != nil {
			p.logger.Warn("failed to stop instance", "instance", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
