package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/queue"
	"solana-token-radar/internal/storage"
)

// Listener registers discovered tokens and schedules their first
// enrichment pass. Duplicate mints are the common case on a busy chain
// and are silently skipped.
type Listener struct {
	tokens    storage.TokenStore
	queue     queue.Queue
	prescreen config.StageConfig
	logger    *log.Logger

	seen map[string]bool // in-process dedupe in front of the store
	now  func() time.Time
}

// NewListener creates a listener.
func NewListener(tokens storage.TokenStore, q queue.Queue, prescreen config.StageConfig, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		tokens:    tokens,
		queue:     q,
		prescreen: prescreen,
		logger:    logger,
		seen:      make(map[string]bool),
		now:       time.Now,
	}
}

// Run consumes a source until its channel closes or ctx is cancelled.
// Per-event failures are logged and skipped; discovery keeps flowing.
func (l *Listener) Run(ctx context.Context, source TokenSource) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-source.Events():
			if !ok {
				return nil
			}
			if _, err := l.Handle(ctx, ev); err != nil {
				observability.RecordDiscoveryError(ev.Source.String())
				l.logger.Printf("[discovery] handle %s failed: %v", ev.Mint, err)
			}
		}
	}
}

// Handle registers one event's token and enqueues its prescreen task.
// Returns the registered token, or nil when the mint was already known.
func (l *Listener) Handle(ctx context.Context, ev *MintEvent) (*domain.Token, error) {
	if l.seen[ev.Mint] {
		observability.DefaultMetrics.DuplicateMints.Inc()
		return nil, nil
	}

	nowMs := l.now().UnixMilli()
	token := &domain.Token{
		Mint:         ev.Mint,
		Chain:        "solana",
		Source:       ev.Source,
		Creator:      ev.Creator,
		Symbol:       ev.Symbol,
		Name:         ev.Name,
		CreatedAt:    ev.Timestamp,
		FirstSeenAt:  ev.Timestamp,
		RegisteredAt: nowMs,
	}

	if err := l.tokens.Insert(ctx, token); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			l.seen[ev.Mint] = true
			observability.DefaultMetrics.DuplicateMints.Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("register token: %w", err)
	}
	l.seen[ev.Mint] = true
	observability.RecordTokenDiscovered(ev.Source.String())

	task := &domain.EnrichmentTask{
		Token:    token.Ref(),
		Stage:    domain.StagePrescreen,
		DueAt:    ev.Timestamp + l.prescreen.Offset().Milliseconds(),
		Priority: domain.PriorityHigh,
	}
	if err := l.queue.Enqueue(ctx, task, false); err != nil && !errors.Is(err, queue.ErrDuplicateTask) {
		return token, fmt.Errorf("enqueue prescreen: %w", err)
	}
	observability.RecordTaskEnqueued(string(domain.StagePrescreen))

	return token, nil
}
