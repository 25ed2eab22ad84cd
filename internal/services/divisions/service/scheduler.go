package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"opengov/internal/platform/logger"
	"opengov/internal/services/divisions/domain"
	"opengov/internal/services/divisions/guardrails"
)

// SchedulerOptions configures the pass loop
type SchedulerOptions struct {
	// Interval between ticks; <=0 -> 1m
	Interval time.Duration

	// RunOnStart fires a pass immediately instead of waiting a full interval
	RunOnStart bool
}

// Scheduler fires passes on a fixed interval and on demand. Every pass goes
// through the gate, so at most one runs at a time
type Scheduler struct {
	pass domain.ReconcilerPort
	gate guardrails.Gate
	opts SchedulerOptions
	log  logger.Logger

	wg sync.WaitGroup
}

var _ domain.SchedulerPort = (*Scheduler)(nil)

// NewScheduler builds a Scheduler. A nil gate means an in-process gate only
func NewScheduler(pass domain.ReconcilerPort, gate guardrails.Gate, o SchedulerOptions) *Scheduler {
	if pass == nil {
		panic("divisions.Scheduler requires a reconciler")
	}
	if gate == nil {
		gate = &guardrails.LocalGate{}
	}
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	return &Scheduler{pass: pass, gate: gate, opts: o, log: *logger.Named("scheduler")}
}

// Run ticks until ctx is cancelled, then waits for the in-flight pass to return.
// Ticks are never queued: a tick that meets a running pass is dropped
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.opts.Interval)
	defer t.Stop()

	s.log.Info().Dur("interval", s.opts.Interval).Bool("run_on_start", s.opts.RunOnStart).Msg("scheduler started")
	if s.opts.RunOnStart {
		s.spawn(ctx, "start")
	}
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-t.C:
			s.spawn(ctx, "tick")
		}
	}
}

// Trigger runs one pass now and waits for it. ErrPassInFlight means another
// pass holds the gate. The pass is detached from ctx cancellation: a caller
// going away must not strand a created thread without its mapping. The pass
// deadline still bounds it
func (s *Scheduler) Trigger(ctx context.Context, reason string) (domain.PassReport, error) {
	trigger := "manual"
	if reason != "" {
		trigger += ":" + reason
	}
	return s.run(context.WithoutCancel(ctx), trigger)
}

func (s *Scheduler) spawn(ctx context.Context, trigger string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err := s.run(ctx, trigger)
		if errors.Is(err, domain.ErrPassInFlight) {
			s.log.Info().Str("trigger", trigger).Msg("pass still running; tick skipped")
		}
	}()
}

func (s *Scheduler) run(ctx context.Context, trigger string) (domain.PassReport, error) {
	var (
		rep     domain.PassReport
		passErr error
	)
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		rep, passErr = s.pass.RunPass(ctx, trigger)
		return nil
	})
	switch {
	case errors.Is(err, guardrails.ErrLeaseHeld):
		return rep, domain.ErrPassInFlight
	case err != nil:
		// without the lock a concurrent pass could duplicate threads, so skip
		s.log.Warn().Err(err).Str("trigger", trigger).Msg("pass lock unavailable; pass skipped")
		return rep, fmt.Errorf("pass lock: %w", err)
	}
	return rep, passErr
}
