// Package ratelimit provides per-source token-bucket limiting and circuit
// breaking shared by every worker. One Registry is constructed at startup
// and passed by reference; per-task construction would let N workers
// collectively exceed a source's limit.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"solana-token-radar/internal/config"
)

func secondsDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

// ErrCircuitOpen is returned by Acquire while a source is cooling down.
var ErrCircuitOpen = errors.New("ratelimit: circuit open")

// Limiter guards one external source: a shared token bucket plus a breaker.
type Limiter struct {
	source  string
	bucket  *rate.Limiter
	breaker *Breaker
}

// Acquire checks the breaker, then waits for a bucket token or ctx expiry.
func (l *Limiter) Acquire(ctx context.Context) error {
	if !l.breaker.Allow() {
		return fmt.Errorf("%s: %w", l.source, ErrCircuitOpen)
	}
	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("%s: wait for rate token: %w", l.source, err)
	}
	return nil
}

// Report feeds the call outcome to the breaker.
func (l *Limiter) Report(err error) {
	if err != nil {
		l.breaker.Failure()
		return
	}
	l.breaker.Success()
}

// Open reports whether the source's breaker is currently open.
func (l *Limiter) Open() bool {
	return l.breaker.Open()
}

// Registry holds one Limiter per external source.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	fallback config.RateLimitConfig
}

// NewRegistry builds limiters from config. Sources absent from the config
// get the fallback limit so an unconfigured adapter is throttled, not free.
func NewRegistry(limits map[string]config.RateLimitConfig) *Registry {
	r := &Registry{
		limiters: make(map[string]*Limiter, len(limits)),
		fallback: config.RateLimitConfig{RPS: 1, Burst: 2, BreakerThreshold: 3, CooldownSeconds: 10, MaxCooldownSecs: 600},
	}
	for source, cfg := range limits {
		r.limiters[source] = newLimiter(source, cfg)
	}
	return r
}

func newLimiter(source string, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		source: source,
		bucket: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		breaker: NewBreaker(
			cfg.BreakerThreshold,
			secondsDuration(cfg.CooldownSeconds),
			secondsDuration(cfg.MaxCooldownSecs),
		),
	}
}

// For returns the limiter for a source, creating a fallback-limited one on
// first use of an unconfigured source.
func (r *Registry) For(source string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[source]; ok {
		return l
	}
	l := newLimiter(source, r.fallback)
	r.limiters[source] = l
	return l
}

// Sources lists every source the registry has a limiter for.
func (r *Registry) Sources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sources := make([]string, 0, len(r.limiters))
	for source := range r.limiters {
		sources = append(sources, source)
	}
	return sources
}

// OpenSources lists sources whose breakers are currently open.
func (r *Registry) OpenSources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var open []string
	for source, l := range r.limiters {
		if l.Open() {
			open = append(open, source)
		}
	}
	return open
}
