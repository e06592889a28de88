package fusion

import (
	"solana-token-radar/internal/adapter"
	"solana-token-radar/internal/domain"
)

// Merge fuses adapter partials into one snapshot. For each optional metric
// the first populated value wins, iterating sources in the stage's declared
// adapter order; security observations OR together; risk flags union. The
// previous stage's snapshot, when present, supplies the baseline for
// holder velocity.
func Merge(ref domain.TokenRef, stage domain.Stage, capturedAtMs int64, order []string, res *Result, prev *domain.TokenSnapshot) *domain.TokenSnapshot {
	snap := &domain.TokenSnapshot{
		Mint:       ref.Mint,
		Stage:      stage,
		CapturedAt: capturedAtMs,
	}

	for _, source := range order {
		p, ok := res.Partials[source]
		if !ok {
			continue
		}
		applyPartial(snap, p)
	}

	deriveMetrics(snap, prev)

	return snap
}

func applyPartial(snap *domain.TokenSnapshot, p *adapter.Partial) {
	if snap.PriceUSD == nil && p.PriceUSD != nil {
		snap.PriceUSD = p.PriceUSD
	}
	if snap.LiquidityUSD == nil && p.LiquidityUSD != nil {
		snap.LiquidityUSD = p.LiquidityUSD
	}
	if snap.HolderCount == nil && p.HolderCount != nil {
		snap.HolderCount = p.HolderCount
	}
	if snap.VolumeUSD5m == nil && p.VolumeUSD5m != nil {
		snap.VolumeUSD5m = p.VolumeUSD5m
	}
	if snap.TopHolderPct == nil && p.TopHolderPct != nil {
		snap.TopHolderPct = p.TopHolderPct
	}
	if snap.SupplyRaw == nil && p.SupplyRaw != nil {
		snap.SupplyRaw = p.SupplyRaw
	}
	if snap.Concentration == nil && p.TopTenPct != nil {
		snap.Concentration = p.TopTenPct
	}

	snap.Honeypot = snap.Honeypot || p.Honeypot
	snap.MintAuthority = snap.MintAuthority || p.MintAuthority
	snap.FreezeAuthority = snap.FreezeAuthority || p.FreezeAuthority
	snap.LPUnlocked = snap.LPUnlocked || p.LPUnlocked
	snap.SellSimFailed = snap.SellSimFailed || p.SellSimFailed

	snap.Flags = domain.MergeFlags(snap.Flags, p.Flags)
}

// deriveMetrics computes velocity against the previous snapshot.
func deriveMetrics(snap *domain.TokenSnapshot, prev *domain.TokenSnapshot) {
	if prev == nil || snap.HolderCount == nil || prev.HolderCount == nil {
		return
	}
	elapsedMin := float64(snap.CapturedAt-prev.CapturedAt) / 60000.0
	if elapsedMin <= 0 {
		return
	}
	v := float64(*snap.HolderCount-*prev.HolderCount) / elapsedMin
	snap.HolderVelocity = &v
}
