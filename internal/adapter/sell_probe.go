package adapter

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/solana"
)

// ProbeTxBuilder produces a base64-encoded unsigned sell transaction for a
// mint. The concrete builder is deployment-specific (it depends on which
// pool program the probe wallet is set up against) and is injected at
// wiring time.
type ProbeTxBuilder func(mint string) (string, error)

// SellProbe runs one low-cost simulated sell during prescreen. A revert is
// the strongest honeypot evidence available before money moves, and it
// costs a single simulateTransaction call.
type SellProbe struct {
	rpc     solana.RPCClient
	buildTx ProbeTxBuilder
}

// NewSellProbe creates a sell probe adapter.
func NewSellProbe(rpc solana.RPCClient, buildTx ProbeTxBuilder) *SellProbe {
	return &SellProbe{rpc: rpc, buildTx: buildTx}
}

// Compile-time interface check.
var _ Adapter = (*SellProbe)(nil)

// Name identifies the source.
func (s *SellProbe) Name() string { return "sell_probe" }

// Fetch simulates a sell of the token and reports the outcome.
func (s *SellProbe) Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error) {
	if s.buildTx == nil {
		// No probe wallet configured for this deployment: the check is
		// skipped and the completeness gate absorbs the missing data.
		return &Partial{Source: s.Name()}, nil
	}

	txBase64, err := s.buildTx(ref.Mint)
	if err != nil {
		return nil, fmt.Errorf("build probe tx for %s: %w", ref.Mint, err)
	}

	result, err := s.rpc.SimulateTransaction(ctx, txBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: simulate sell: %v", ErrUnavailable, err)
	}

	p := &Partial{Source: s.Name()}
	if result.Err != nil {
		p.SellSimFailed = true
		p.Flags = append(p.Flags, domain.FlagSellSimFailed)
	}
	return p, nil
}
