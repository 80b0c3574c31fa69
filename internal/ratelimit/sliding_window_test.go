package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSlidingWindowLimiterRedis(t *testing.T) {
	_, client := newTestClient(t)
	limiter, err := NewSlidingWindowLimiter(client, "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	ctx := context.Background()
	for i, want := range []bool{true, true, false} {
		ok, err := limiter.Allow(ctx, "ip-1")
		if err != nil {
			t.Fatalf("allow #%d: %v", i+1, err)
		}
		if ok != want {
			t.Fatalf("request #%d: got %v, want %v", i+1, ok, want)
		}
	}
	if ok, _ := limiter.Allow(ctx, "ip-2"); !ok {
		t.Fatalf("other keys must have their own quota")
	}
}

func TestSlidingWindowLimiterSlides(t *testing.T) {
	_, client := newTestClient(t)
	limiter, err := NewSlidingWindowLimiter(client, "test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "user"); !ok {
		t.Fatalf("first request should pass")
	}
	now = now.Add(59 * time.Second)
	if ok, _ := limiter.Allow(ctx, "user"); ok {
		t.Fatalf("request inside the window should be blocked")
	}
	now = now.Add(2 * time.Second)
	if ok, _ := limiter.Allow(ctx, "user"); !ok {
		t.Fatalf("request after the window should pass")
	}
}

func TestSlidingWindowLimiterFailsClosed(t *testing.T) {
	mr, client := newTestClient(t)
	limiter, err := NewSlidingWindowLimiter(client, "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	mr.Close()
	ok, err := limiter.Allow(context.Background(), "ip-1")
	if err == nil || ok {
		t.Fatalf("limiter should fail closed on redis errors, got ok=%v err=%v", ok, err)
	}
}

func TestSlidingWindowLimiterRejectsBadConfig(t *testing.T) {
	_, client := newTestClient(t)
	if _, err := NewSlidingWindowLimiter(client, "p", 0, time.Second); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := NewSlidingWindowLimiter(nil, "p", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestSetUsesNamedRules(t *testing.T) {
	_, client := newTestClient(t)
	rules := DefaultRules()
	rules.SignUp = Rule{Limit: 1, Window: time.Minute}
	set, err := NewSet(client, "test", rules)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	ctx := context.Background()
	if ok, _ := set.Allow(ctx, SignUp, "1.2.3.4"); !ok {
		t.Fatalf("first signup should pass")
	}
	if ok, _ := set.Allow(ctx, SignUp, "1.2.3.4"); ok {
		t.Fatalf("second signup should be blocked")
	}
	if ok, _ := set.Allow(ctx, Auth, "1.2.3.4"); !ok {
		t.Fatalf("auth quota is separate from signup")
	}
	if ok, _ := set.Allow(ctx, "unknown", "x"); !ok {
		t.Fatalf("unknown names are not limited")
	}
}

func TestUnlimitedSet(t *testing.T) {
	set := NewUnlimitedSet()
	for name, l := range set.limiters {
		if _, ok := l.(Unlimited); !ok {
			t.Fatalf("limiter %s is %T, want Unlimited", name, l)
		}
	}
	if len(set.limiters) != len(DefaultRules().byName()) {
		t.Fatalf("got %d limiters, want one per rule", len(set.limiters))
	}
	for i := 0; i < 100; i++ {
		if ok, err := set.Allow(context.Background(), Story, "u"); !ok || err != nil {
			t.Fatalf("unlimited set rejected request %d", i)
		}
	}
}
