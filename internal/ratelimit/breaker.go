package ratelimit

import (
	"sync"
	"time"
)

// Breaker is a failure-triggered circuit breaker with exponential cooldown
// and gradual recovery. Repeated trips double the cooldown up to a cap; a
// success reduces the trip count by one instead of resetting it, so a flaky
// upstream does not oscillate between fully-open and fully-closed.
type Breaker struct {
	mu sync.Mutex

	threshold   int           // consecutive failures before tripping
	cooldown    time.Duration // base cooldown, doubles per trip
	maxCooldown time.Duration

	failures  int       // consecutive failures since last success
	trips     int       // decremented (not cleared) by successes
	openUntil time.Time // zero when closed

	now func() time.Time // injectable clock for tests
}

// NewBreaker creates a breaker. threshold <= 0 defaults to 5.
func NewBreaker(threshold int, cooldown, maxCooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Second
	}
	if maxCooldown < cooldown {
		maxCooldown = cooldown
	}
	return &Breaker{
		threshold:   threshold,
		cooldown:    cooldown,
		maxCooldown: maxCooldown,
		now:         time.Now,
	}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openUntil.IsZero() || !b.now().Before(b.openUntil)
}

// Success records a successful call. Trip count drops by one, never below
// zero, and the breaker closes.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.trips > 0 {
		b.trips--
	}
	b.openUntil = time.Time{}
}

// Failure records a failed call, tripping the breaker once consecutive
// failures reach the threshold. Cooldown is cooldown * 2^(trips-1), capped.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures < b.threshold {
		return
	}

	b.failures = 0
	b.trips++

	d := b.cooldown
	for i := 1; i < b.trips; i++ {
		d *= 2
		if d >= b.maxCooldown {
			d = b.maxCooldown
			break
		}
	}
	b.openUntil = b.now().Add(d)
}

// Trips returns the current trip count, for tests and metrics.
func (b *Breaker) Trips() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	return !b.Allow()
}
