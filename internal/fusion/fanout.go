// Package fusion runs a stage's adapter fan-out under one wall-clock
// budget and merges whatever subset succeeded into a snapshot.
package fusion

import (
	"context"
	"log"
	"sync"
	"time"

	"solana-token-radar/internal/adapter"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/ratelimit"
)

// Result holds per-adapter outcomes of one fan-out.
type Result struct {
	Partials map[string]*adapter.Partial
	Errors   map[string]error
}

// Sources lists queried and failed source names in stable order.
func (r *Result) Sources(adapters []adapter.Adapter) (queried, failed []string) {
	for _, a := range adapters {
		queried = append(queried, a.Name())
		if _, ok := r.Errors[a.Name()]; ok {
			failed = append(failed, a.Name())
		}
	}
	return queried, failed
}

// FanOut invokes every adapter concurrently, bounded by budget. Failures
// and timeouts are captured per adapter and never abort siblings. When the
// budget expires, outstanding calls are cancelled but already-gathered
// partials are kept: the stage proceeds with whatever completed.
func FanOut(ctx context.Context, ref domain.TokenRef, adapters []adapter.Adapter, limits *ratelimit.Registry, budget time.Duration, logger *log.Logger) *Result {
	if logger == nil {
		logger = log.Default()
	}

	fanCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	var mu sync.Mutex
	res := &Result{
		Partials: make(map[string]*adapter.Partial, len(adapters)),
		Errors:   make(map[string]error),
	}

	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()

			limiter := limits.For(a.Name())
			if err := limiter.Acquire(fanCtx); err != nil {
				mu.Lock()
				res.Errors[a.Name()] = err
				mu.Unlock()
				return
			}

			start := time.Now()
			partial, err := a.Fetch(fanCtx, ref)
			limiter.Report(err)
			observability.RecordAdapterLatency(a.Name(), time.Since(start).Seconds())

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[a.Name()] = err
				return
			}
			res.Partials[a.Name()] = partial
		}(a)
	}

	// Wait for completion or budget expiry. Late writers finish into the
	// maps behind the mutex either way; reading happens only after this
	// function returns the snapshot of whatever made it in time.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-fanCtx.Done():
		logger.Printf("[fusion] fan-out budget expired for %s, proceeding with %d/%d sources",
			ref.Mint, countPartials(&mu, res), len(adapters))
		<-done // adapters honor the deadline, so this returns promptly
	}

	return res
}

func countPartials(mu *sync.Mutex, res *Result) int {
	mu.Lock()
	defer mu.Unlock()
	return len(res.Partials)
}
