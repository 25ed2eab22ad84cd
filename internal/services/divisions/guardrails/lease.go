package guardrails

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"opengov/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLeaseHeld signals another pass owns the lock already
var ErrLeaseHeld = errors.New("divisions: pass lease already held")

// Gate serializes passes. Do runs fn only when the gate could be taken and
// returns ErrLeaseHeld otherwise
type Gate interface {
	Do(ctx context.Context, fn func(context.Context) error) error
}

// LocalGate admits one pass at a time within the process
type LocalGate struct{ busy atomic.Bool }

// Do runs fn unless another call is inside the gate
func (g *LocalGate) Do(ctx context.Context, fn func(context.Context) error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrLeaseHeld
	}
	defer g.busy.Store(false)
	return fn(ctx)
}

// Busy reports whether a pass currently holds the gate
func (g *LocalGate) Busy() bool { return g.busy.Load() }

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a cross-process lease: SET NX PX with a per-claim token.
// The TTL reclaims the key if a holder dies mid pass
type RedisLock struct {
	rdb   redis.UniversalClient
	key   string
	owner string
	ttl   time.Duration
	log   *logger.Logger
}

// NewRedisLock builds a lease on key. ttl <= 0 defaults to two minutes
func NewRedisLock(rdb redis.UniversalClient, key, owner string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if owner == "" {
		owner, _ = os.Hostname()
	}
	return &RedisLock{
		rdb:   rdb,
		key:   key,
		owner: fmt.Sprintf("%s:%d", owner, os.Getpid()),
		ttl:   ttl,
		log:   logger.Named("guardrails"),
	}
}

// Do claims the lease, runs fn and releases. Failure to reach Redis is
// returned as is so the caller can decide whether to run unguarded
func (l *RedisLock) Do(ctx context.Context, fn func(context.Context) error) error {
	token := l.owner + ":" + uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim lease %s: %w", l.key, err)
	}
	if !ok {
		return ErrLeaseHeld
	}
	defer func() {
		// released on a fresh context so a cancelled pass still frees the key
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{l.key}, token).Err(); err != nil {
			// the TTL frees the key later
			l.log.Debug().Err(err).Str("key", l.key).Str("pass_id", logger.PassID(ctx)).
				Dur("ttl", l.ttl).Msg("lease release failed")
		}
	}()
	return fn(ctx)
}

// Chain takes every gate in order before running fn
func Chain(gates ...Gate) Gate { return chain(gates) }

type chain []Gate

func (c chain) Do(ctx context.Context, fn func(context.Context) error) error {
	if len(c) == 0 {
		return fn(ctx)
	}
	if c[0] == nil {
		return c[1:].Do(ctx, fn)
	}
	return c[0].Do(ctx, func(ctx context.Context) error { return c[1:].Do(ctx, fn) })
}
