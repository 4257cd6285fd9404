package pool

import (
	"context"
	"time"

	"github.com/nao1215/torsel/internal/model"
	"github.com/nao1215/torsel/internal/session"
	"github.com/nao1215/torsel/internal/tor"
)

// worker drains the task queue until it is empty or a stop condition is
// observed. Stops are polled, not pushed: a worker only notices one after
// finishing its current action's full retry loop, then drains the rest of
// the queue as skipped so completion accounting stays exact.
func (p *Pool) worker(ctx context.Context, tasks <-chan int, report *model.RunReport, fn session.ActionFunc, stopCheck func() bool) {
	for actionIndex := range tasks {
		report.Add(p.runAction(ctx, actionIndex, fn))

		if ctx.Err() != nil || (stopCheck != nil && stopCheck()) {
			p.logger.Info("stop condition observed, draining queue")
			for idx := range tasks {
				report.Add(model.ActionResult{
					ActionIndex:   idx,
					InstanceIndex: idx % p.cfg.TotalInstances,
					Status:        model.StatusSkipped,
				})
			}
			return
		}
	}
}

// runAction executes one action with the retry-and-rotate policy.
// The instance's lock is held for the whole retry loop, so no other
// worker can execute against or rotate the same instance concurrently.
func (p *Pool) runAction(ctx context.Context, actionIndex int, fn session.ActionFunc) model.ActionResult {
	start := time.Now()
	instanceIndex := actionIndex % p.cfg.TotalInstances
	s := p.slots[instanceIndex]

	res := model.ActionResult{
		ActionIndex:   actionIndex,
		InstanceIndex: instanceIndex,
	}

	p.ensureStarted(ctx, s, instanceIndex)
	socksAddr, controlPort := p.endpoints(s, instanceIndex)

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt

		err := p.executor.Execute(ctx, actionIndex, instanceIndex, socksAddr, fn)
		if err == nil {
			res.Status = model.StatusSucceeded
			res.LastError = ""
			break
		}

		res.Status = model.StatusAbandoned
		res.LastError = err.Error()
		p.logger.Warn("action attempt failed",
			"action", actionIndex,
			"instance", instanceIndex,
			"attempt", attempt,
			"error", err,
		)

		// Rotate between attempts only; the final failure is terminal
		// and a rotation after it would benefit nobody.
		if attempt < p.cfg.MaxAttempts {
			p.rotateIdentity(ctx, s, instanceIndex, controlPort)
			res.Rotations++
		}
	}

	res.Elapsed = time.Since(start)
	return res
}

// ensureStarted lazily creates the instance at instanceIndex exactly
// once, no matter which worker gets there first. Creation failure is
// recorded and logged but does not stop the action: ports are derived
// deterministically, so the retry loop still runs and fails attempt by
// attempt, matching the policy that a process that never came up is
// discovered through failing executes.
func (p *Pool) ensureStarted(ctx context.Context, s *slot, instanceIndex int) {
	s.once.Do(func() {
		inst, err := p.launcher.Create(ctx, instanceIndex)
		if err != nil {
			s.createErr = err
			p.logger.Error("failed to create instance",
				"instance", instanceIndex,
				"error", err,
			)
			return
		}
		s.inst = inst

		// Tor offers no readiness signal after exec; give it time to
		// open its listeners. Embedded instances bootstrap before
		// Create returns, so no settle applies there.
		if !p.cfg.Embedded && p.cfg.CreateSettle > 0 {
			time.Sleep(p.cfg.CreateSettle)
		}
	})

	if s.createErr != nil {
		p.logger.Debug("instance unavailable, attempts will fail",
			"instance", instanceIndex,
			"error", s.createErr,
		)
	}
}

// endpoints resolves the SOCKS address and control port for a slot.
// A running instance is authoritative (embedded instances have
// OS-assigned ports); otherwise fall back to the deterministic derivation.
func (p *Pool) endpoints(s *slot, instanceIndex int) (socksAddr string, controlPort int) {
	if s.inst != nil {
		return s.inst.SocksAddr(), s.inst.ControlPort
	}
	inst := &tor.Instance{SocksPort: p.cfg.SocksPort(instanceIndex)}
	return inst.SocksAddr(), p.cfg.ControlPort(instanceIndex)
}

// rotateIdentity asks the instance for a fresh identity. Rotation is
// best-effort throughout: a closed control port, failed authentication,
// or protocol error all log and return, because the caller's retry loop
// still benefits from retrying against the unrotated identity.
func (p *Pool) rotateIdentity(ctx context.Context, s *slot, instanceIndex, controlPort int) {
	if !tor.IsPortOpen(controlPort) {
		p.logger.Warn("control port not accessible, rotation skipped",
			"instance", instanceIndex,
			"ctrl_port", controlPort,
		)
		return
	}

	// Space signals so Tor does not absorb them silently.
	if err := s.limiter.Wait(ctx); err != nil {
		p.logger.Warn("rotation cancelled", "instance", instanceIndex, "error", err)
		return
	}

	ctrl := tor.NewController(controlPort, p.cfg.ControlPassword)
	if err := ctrl.NewIdentity(ctx); err != nil {
		p.logger.Warn("identity rotation failed, continuing without",
			"instance", instanceIndex,
			"error", err,
		)
		return
	}

	// Let the new circuit take effect before the next attempt.
	if p.cfg.RotationSettle > 0 {
		time.Sleep(p.cfg.RotationSettle)
	}

	p.logger.Info("identity rotated", "instance", instanceIndex)
}
