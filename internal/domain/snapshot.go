package domain

// TokenSnapshot is a point-in-time fused view of one token at one stage.
// Append-only: produced exclusively by the worker executing that stage,
// never mutated after write. Corresponds to token_snapshots table.
//
// Core metrics are pointers: nil means the adapter that supplies the metric
// failed or was absent for the stage. The scoring completeness gate counts
// populated core metrics against CoreMetricCount.
type TokenSnapshot struct {
	Mint        string
	Stage       Stage
	CapturedAt  int64 // ms

	// Core metrics, fused from adapter partials.
	PriceUSD     *float64
	LiquidityUSD *float64
	HolderCount  *int64
	VolumeUSD5m  *float64
	TopHolderPct *float64 // largest non-pool holder share, 0..1
	SupplyRaw    *float64

	// Derived metrics, computed during fusion from core metrics plus the
	// previous stage's snapshot when available.
	HolderVelocity *float64 // holders gained per minute since previous snapshot
	Concentration  *float64 // top-ten holder share, 0..1

	// Security observations.
	Honeypot        bool // confirmed: buys succeed, sells revert
	MintAuthority   bool // mint authority still set
	FreezeAuthority bool // freeze authority still set
	LPUnlocked      bool // LP tokens held by an unlocked wallet
	SellSimFailed   bool

	// Flags raised while producing this snapshot.
	Flags []RiskFlag

	// Adapter accounting for the completeness gate and diagnostics.
	SourcesQueried []string
	SourcesFailed  []string
}

// CoreMetricCount is the number of core metrics a fully fused snapshot has.
const CoreMetricCount = 6

// PopulatedCoreMetrics counts core metrics present in the snapshot.
func (s *TokenSnapshot) PopulatedCoreMetrics() int {
	n := 0
	if s.PriceUSD != nil {
		n++
	}
	if s.LiquidityUSD != nil {
		n++
	}
	if s.HolderCount != nil {
		n++
	}
	if s.VolumeUSD5m != nil {
		n++
	}
	if s.TopHolderPct != nil {
		n++
	}
	if s.SupplyRaw != nil {
		n++
	}
	return n
}
