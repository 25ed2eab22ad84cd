// Package module wires the divisions service: store, engine, scheduler and admin routes
package module

import (
	"context"
	"time"

	"opengov/internal/core/version"
	"opengov/internal/modkit"
	mod "opengov/internal/modkit/module"
	"opengov/internal/modkit/repokit"
	phttp "opengov/internal/platform/net/http"
	"opengov/internal/platform/store"
	"opengov/internal/services/divisions/domain"
	"opengov/internal/services/divisions/guardrails"
	divhttp "opengov/internal/services/divisions/http"
	"opengov/internal/services/divisions/repo"
	"opengov/internal/services/divisions/service"

	"github.com/redis/go-redis/v9"
)

// LockKey is the Redis key that serializes passes across processes
const LockKey = "opengov:divisions:pass"

// Ports is the divisions port set
type Ports struct {
	Reconciler domain.ReconcilerPort
	Scheduler  domain.SchedulerPort
	Status     domain.StatusPort
}

// Module implements module.Module
type Module struct {
	deps      modkit.Deps
	ports     Ports
	startedAt time.Time
}

var _ mod.Module = (*Module)(nil)

// New builds the module. The source and thread driver are adapters built by the caller
func New(deps modkit.Deps, src domain.SourcePort, threads domain.ThreadPort, o Options) *Module {
	o = o.normalized(deps.Log)
	st := repokit.MustBind(repo.NewPG(), deps.PG)
	svc := service.New(src, st, threads, st, service.Config{Timeouts: o.Timeouts})

	gates := []guardrails.Gate{&guardrails.LocalGate{}}
	if deps.RDS != nil {
		gates = append(gates, guardrails.NewRedisLock(deps.RDS, LockKey, "", o.LockTTL))
	}
	sched := service.NewScheduler(svc, guardrails.Chain(gates...), service.SchedulerOptions{
		Interval:   o.Interval,
		RunOnStart: o.RunOnStart,
	})

	deps.Log.Info().
		Dur("interval", o.Interval).
		Dur("pass_timeout", o.Timeouts.Pass).
		Dur("lock_ttl", o.LockTTL).
		Bool("redis_lock", deps.RDS != nil).
		Msg("divisions module ready")

	return &Module{
		deps:      deps,
		ports:     Ports{Reconciler: svc, Scheduler: sched, Status: svc},
		startedAt: time.Now(),
	}
}

// MountRoutes implements module.Module
func (m *Module) MountRoutes(r phttp.Router) {
	checks := map[string]divhttp.Pinger{}
	if p, ok := m.deps.PG.(store.Pinger); ok {
		checks["pg"] = p
	}
	if m.deps.RDS != nil {
		checks["redis"] = redisPinger{m.deps.RDS}
	}
	r.Route("/v1", func(rr phttp.Router) {
		divhttp.Register(rr, divhttp.Deps{
			ServiceName: version.Service,
			StartedAt:   m.startedAt,
			Scheduler:   m.ports.Scheduler,
			Status:      m.ports.Status,
			Checks:      checks,
		})
	})
}

// Ports implements module.Module
func (m *Module) Ports() any { return m.ports }

// Name implements module.Module
func (m *Module) Name() string { return "divisions" }

type redisPinger struct{ rdb redis.UniversalClient }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }
