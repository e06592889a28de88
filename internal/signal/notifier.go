package signal

import (
	"context"
	"log"

	"solana-token-radar/internal/domain"
)

// Notifier receives decided signals. The execution layer behind it is out
// of this system's hands: implementations must return quickly and must not
// block the worker that produced the signal.
type Notifier interface {
	OnSignal(ctx context.Context, ref domain.TokenRef, decision *domain.SignalDecision)
}

// LogNotifier writes signals to the log. The default sink when no
// execution layer is wired.
type LogNotifier struct {
	Logger *log.Logger
}

// OnSignal logs the decision.
func (n *LogNotifier) OnSignal(_ context.Context, ref domain.TokenRef, decision *domain.SignalDecision) {
	logger := n.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[signal] %s %s net=%.1f rules=%d", ref.Mint, decision.Status, decision.NetScore, len(decision.Fired))
}

// NopNotifier discards signals, for tests.
type NopNotifier struct{}

// OnSignal does nothing.
func (NopNotifier) OnSignal(context.Context, domain.TokenRef, *domain.SignalDecision) {}
