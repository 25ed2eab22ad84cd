// Package guardrails holds the budgets and the pass lock that keep reconciliation bounded
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the budget bundle for one reconciliation pass.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Pass bounds the whole pass; it should sit below the scheduling interval
	Pass time.Duration

	// Source caps each remote API call
	Source time.Duration

	// Store caps each mapping store call
	Store time.Duration

	// Platform caps each chat platform call
	Platform time.Duration
}

// WithPass returns a context limited by the pass budget without extending any parent deadline
func WithPass(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Pass)
}

// ForSource returns a sub context for one source call bounded by Source and the pass remainder
func ForSource(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Source)
}

// ForStore returns a sub context for one store call bounded by Store and the pass remainder
func ForStore(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Store)
}

// ForPlatform returns a sub context for one platform call bounded by Platform and the pass remainder
func ForPlatform(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Platform)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout picks the tighter of d and the parent remainder. Never extends the parent deadline.
// d <= 0 yields a cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
