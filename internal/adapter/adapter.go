// Package adapter defines the data fusion contract between the scheduler
// and external data providers. Concrete provider clients live outside this
// repo; the two on-chain prescreen adapters are in-tree because they are
// the system's cost-control path and depend only on an RPC endpoint.
package adapter

import (
	"context"
	"errors"

	"solana-token-radar/internal/domain"
)

// Adapter errors. Both are non-fatal to a stage: the fan-out records them
// and the completeness gate absorbs the missing data.
var (
	// ErrRateLimited indicates the upstream rejected the call for quota.
	ErrRateLimited = errors.New("adapter: rate limited by upstream")

	// ErrUnavailable indicates the upstream is down or returned garbage.
	ErrUnavailable = errors.New("adapter: upstream unavailable")
)

// Adapter fetches one source's view of a token. Implementations must honor
// the ctx deadline, must be side-effect-free beyond the call itself, and
// must never block past the deadline they are given.
type Adapter interface {
	// Name identifies the source for rate limiting and diagnostics.
	Name() string

	// Fetch returns the source's partial view of the token.
	Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error)
}

// Partial is one adapter's tagged contribution to a snapshot. Optional
// fields are pointers: nil means the source does not supply that metric.
// The completeness gate counts populated fields against the declared core
// metric set, never against free-form payloads.
type Partial struct {
	Source string

	// Core metrics.
	PriceUSD     *float64
	LiquidityUSD *float64
	HolderCount  *int64
	VolumeUSD5m  *float64
	TopHolderPct *float64
	SupplyRaw    *float64

	// Derived inputs.
	TopTenPct *float64

	// Security observations. Value semantics: false means "not observed",
	// which for fusion is the same as absent.
	Honeypot        bool
	MintAuthority   bool
	FreezeAuthority bool
	LPUnlocked      bool
	SellSimFailed   bool

	// Flags the source raised while fetching.
	Flags []domain.RiskFlag
}
