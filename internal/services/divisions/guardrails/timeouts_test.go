package guardrails

import (
	"context"
	"testing"
	"time"
)

func TestWithChildTimeout_NeverExtendsParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c2 := ForSource(parent, Timeouts{Source: time.Hour})
	defer c2()

	pdl, _ := parent.Deadline()
	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("child should carry a deadline")
	}
	if dl.After(pdl) {
		t.Fatalf("child deadline %v after parent %v", dl, pdl)
	}
}

func TestWithChildTimeout_TighterChild(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	ctx, c2 := ForStore(parent, Timeouts{Store: 10 * time.Millisecond})
	defer c2()
	if r := Remaining(ctx); r <= 0 || r > 10*time.Millisecond {
		t.Fatalf("remaining = %v", r)
	}
}

func TestWithChildTimeout_ZeroInherits(t *testing.T) {
	ctx, cancel := WithPass(context.Background(), Timeouts{})
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("zero budget should not add a deadline")
	}
	cancel()
	if ctx.Err() == nil {
		t.Fatal("child must still be cancelable")
	}
}

func TestRemaining(t *testing.T) {
	if Remaining(context.Background()) != 0 {
		t.Fatal("no deadline means zero")
	}
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if Remaining(ctx) != 0 {
		t.Fatal("expired deadline means zero")
	}
}

func TestForPlatform(t *testing.T) {
	ctx, cancel := ForPlatform(context.Background(), Timeouts{Platform: time.Second})
	defer cancel()
	if r := Remaining(ctx); r <= 0 || r > time.Second {
		t.Fatalf("remaining = %v", r)
	}
}
