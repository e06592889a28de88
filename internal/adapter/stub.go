package adapter

import (
	"context"
	"sync/atomic"
	"time"

	"solana-token-radar/internal/domain"
)

// Stub is a configurable test double for any external source: fixed
// partial, fixed error, or fixed latency to exercise fan-out deadlines.
type Stub struct {
	SourceName string
	Partial    *Partial
	Err        error
	Delay      time.Duration

	calls atomic.Int64
}

// Compile-time interface check.
var _ Adapter = (*Stub)(nil)

// Name identifies the source.
func (s *Stub) Name() string { return s.SourceName }

// Fetch returns the configured result after the configured delay,
// honoring the caller's deadline.
func (s *Stub) Fetch(ctx context.Context, _ domain.TokenRef) (*Partial, error) {
	s.calls.Add(1)

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Partial != nil {
		p := *s.Partial
		p.Source = s.SourceName
		return &p, nil
	}
	return &Partial{Source: s.SourceName}, nil
}

// Calls returns how many times Fetch was invoked.
func (s *Stub) Calls() int64 {
	return s.calls.Load()
}
