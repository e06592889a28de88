package signal

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// Sweeper downgrades stale decisions through a fixed ladder, strictly as a
// function of time since each decision's last update. A decision that a
// later evaluation re-confirms has its clock reset by that evaluation's
// Upsert; the sweep never looks at creation time.
type Sweeper struct {
	store  storage.SignalStore
	ladder config.DecayConfig
	logger *log.Logger

	onDowngrade func(from, to domain.SignalStatus) // metrics hook, may be nil
	now         func() time.Time
}

// NewSweeper creates a decay sweeper.
func NewSweeper(store storage.SignalStore, ladder config.DecayConfig, logger *log.Logger, onDowngrade func(from, to domain.SignalStatus)) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		store:       store,
		ladder:      ladder,
		logger:      logger,
		onDowngrade: onDowngrade,
		now:         time.Now,
	}
}

// threshold returns how long a status may go without re-confirmation.
func (s *Sweeper) threshold(status domain.SignalStatus) (time.Duration, bool) {
	switch status {
	case domain.StatusStrongBuy:
		return hours(s.ladder.StrongBuyAfterHours), true
	case domain.StatusBuy:
		return hours(s.ladder.BuyAfterHours), true
	case domain.StatusWatch:
		return hours(s.ladder.WatchAfterHours), true
	default:
		return 0, false
	}
}

// nextDown returns the status one tier below.
func nextDown(status domain.SignalStatus) domain.SignalStatus {
	switch status {
	case domain.StatusStrongBuy:
		return domain.StatusBuy
	case domain.StatusBuy:
		return domain.StatusWatch
	default:
		return domain.StatusExpired
	}
}

// DecayStale downgrades every active decision overdue at now by exactly
// one tier. The downgrade is conditional on the status not having changed
// since the list was read, so a concurrent re-confirmation wins. Returns
// how many decisions moved.
func (s *Sweeper) DecayStale(ctx context.Context, now time.Time) (int, error) {
	nowMs := now.UnixMilli()

	// The tightest threshold bounds the candidate set; per-tier checks
	// below decide whether each candidate is actually overdue.
	candidates, err := s.store.ListActiveOlderThan(ctx, nowMs-minThresholdMs(s.ladder))
	if err != nil {
		return 0, fmt.Errorf("list stale decisions: %w", err)
	}

	downgraded := 0
	for _, d := range candidates {
		limit, ok := s.threshold(d.Status)
		if !ok {
			continue
		}
		if nowMs-d.UpdatedAt <= limit.Milliseconds() {
			continue
		}

		to := nextDown(d.Status)
		moved, err := s.store.MarkStatus(ctx, d.Mint, d.Status, to, nowMs)
		if err != nil {
			return downgraded, fmt.Errorf("downgrade %s: %w", d.Mint, err)
		}
		if !moved {
			continue // re-confirmed or already moved by a racing sweep
		}

		downgraded++
		s.logger.Printf("[decay] %s %s -> %s (stale %s)", d.Mint, d.Status, to,
			(time.Duration(nowMs-d.UpdatedAt) * time.Millisecond).Round(time.Minute))
		if s.onDowngrade != nil {
			s.onDowngrade(d.Status, to)
		}
	}

	return downgraded, nil
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.ladder.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.DecayStale(ctx, s.now()); err != nil {
				// Sweep failures are retried next tick; the worker
				// pipeline does not depend on the sweeper.
				s.logger.Printf("[decay] sweep failed: %v", err)
			}
		}
	}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

// minThresholdMs is the tightest ladder threshold; anything younger cannot
// be stale at any tier.
func minThresholdMs(ladder config.DecayConfig) int64 {
	min := hours(ladder.StrongBuyAfterHours)
	if d := hours(ladder.BuyAfterHours); d < min {
		min = d
	}
	if d := hours(ladder.WatchAfterHours); d < min {
		min = d
	}
	return min.Milliseconds()
}
