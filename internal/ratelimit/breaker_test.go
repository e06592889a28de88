package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-token-radar/internal/config"
)

// fakeClock advances manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, cooldown, maxCooldown time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(threshold, cooldown, maxCooldown)
	b.now = clock.now
	return b, clock
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3, 10*time.Second, 100*time.Second)

	b.Failure()
	b.Failure()
	if !b.Allow() {
		t.Fatal("Breaker must stay closed below the threshold")
	}

	b.Failure()
	if b.Allow() {
		t.Fatal("Breaker must open at the threshold")
	}
	if b.Trips() != 1 {
		t.Errorf("Expected 1 trip, got %d", b.Trips())
	}
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b, _ := newTestBreaker(3, 10*time.Second, 100*time.Second)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if !b.Allow() {
		t.Fatal("Non-consecutive failures must not trip the breaker")
	}
}

func TestBreaker_ExponentialCooldown(t *testing.T) {
	b, clock := newTestBreaker(2, 10*time.Second, 100*time.Second)

	trip := func() {
		b.Failure()
		b.Failure()
	}

	// First trip: 10s cooldown.
	trip()
	clock.advance(9 * time.Second)
	if b.Allow() {
		t.Fatal("Breaker must stay open inside the first cooldown")
	}
	clock.advance(2 * time.Second)
	if !b.Allow() {
		t.Fatal("Breaker must half-open after the first cooldown")
	}

	// Second trip without an intervening success: 20s cooldown.
	trip()
	clock.advance(19 * time.Second)
	if b.Allow() {
		t.Fatal("Second trip must double the cooldown")
	}
	clock.advance(2 * time.Second)
	if !b.Allow() {
		t.Fatal("Breaker must reopen after the doubled cooldown")
	}

	// Trips 3..6 would exceed the cap; cooldown stays at 100s.
	for i := 0; i < 4; i++ {
		trip()
		clock.advance(101 * time.Second)
	}
	trip()
	clock.advance(99 * time.Second)
	if b.Allow() {
		t.Fatal("Cooldown must still apply at the cap")
	}
	clock.advance(2 * time.Second)
	if !b.Allow() {
		t.Fatal("Cooldown must never exceed the cap")
	}
}

func TestBreaker_GradualRecovery(t *testing.T) {
	b, clock := newTestBreaker(2, 10*time.Second, 100*time.Second)

	// Three trips accumulate.
	for i := 0; i < 3; i++ {
		b.Failure()
		b.Failure()
		clock.advance(200 * time.Second)
	}
	if b.Trips() != 3 {
		t.Fatalf("Expected 3 trips, got %d", b.Trips())
	}

	// One success steps the trip count down by one, not to zero.
	b.Success()
	if b.Trips() != 2 {
		t.Errorf("Expected trips to decrement to 2, got %d", b.Trips())
	}
	b.Success()
	b.Success()
	b.Success() // extra successes stop at zero
	if b.Trips() != 0 {
		t.Errorf("Expected trips floor at 0, got %d", b.Trips())
	}

	// After recovery, the next trip gets the base cooldown again.
	b.Failure()
	b.Failure()
	clock.advance(11 * time.Second)
	if !b.Allow() {
		t.Error("Recovered breaker must use the base cooldown")
	}
}

func TestLimiter_AcquireRejectsWhileOpen(t *testing.T) {
	r := NewRegistry(map[string]config.RateLimitConfig{
		"flaky": {RPS: 100, Burst: 10, BreakerThreshold: 2, CooldownSeconds: 60, MaxCooldownSecs: 600},
	})
	l := r.For("flaky")

	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire on a fresh limiter failed: %v", err)
	}

	l.Report(errors.New("upstream 500"))
	l.Report(errors.New("upstream 500"))

	err := l.Acquire(ctx)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if !l.Open() {
		t.Error("Limiter must report open")
	}
}

func TestRegistry_UnknownSourceGetsFallback(t *testing.T) {
	r := NewRegistry(map[string]config.RateLimitConfig{})

	l := r.For("never_configured")
	if l == nil {
		t.Fatal("Registry must create a fallback limiter")
	}
	if l2 := r.For("never_configured"); l2 != l {
		t.Error("Registry must reuse the limiter for a source")
	}
}

func TestRegistry_OpenSources(t *testing.T) {
	r := NewRegistry(map[string]config.RateLimitConfig{
		"a": {RPS: 100, Burst: 10, BreakerThreshold: 1, CooldownSeconds: 60, MaxCooldownSecs: 60},
		"b": {RPS: 100, Burst: 10, BreakerThreshold: 1, CooldownSeconds: 60, MaxCooldownSecs: 60},
	})

	r.For("a").Report(errors.New("boom"))

	open := r.OpenSources()
	if len(open) != 1 || open[0] != "a" {
		t.Errorf("Expected only source a open, got %v", open)
	}
}
