// Package scoring maps fused snapshots to a bounded 0..100 score. Two
// independently weighted variants run side by side on identical input for
// A/B comparison; they share the disqualifier and completeness-cap
// contract and may differ only in component weighting.
package scoring

import (
	"math"

	"solana-token-radar/internal/domain"
)

// History carries prior context into scoring. All fields optional.
type History struct {
	PrevSnapshot *domain.TokenSnapshot
	PrevScore    *int
}

// Engine is one scoring variant. Score is a total function: it always
// returns a result, whatever the input looks like.
type Engine struct {
	variant  string
	weights  map[string]float64
	minCore  int
	capScore int
}

// New creates a scoring engine.
//
// weights maps component names (liquidity, holders, volume, velocity,
// concentration, security) to their maximum point contributions; the map
// should sum to 100 for a full-range score.
func New(variant string, weights map[string]float64, minCoreMetrics, capScore int) *Engine {
	return &Engine{
		variant:  variant,
		weights:  weights,
		minCore:  minCoreMetrics,
		capScore: capScore,
	}
}

// Variant returns the engine's variant tag.
func (e *Engine) Variant() string { return e.variant }

// Score evaluates one snapshot. Hard disqualifiers short-circuit to 0.
// When fewer than the minimum core metrics are populated, the score is
// capped regardless of how favorable the present metrics look.
func (e *Engine) Score(snap *domain.TokenSnapshot, flags []domain.RiskFlag, hist *History) domain.ScoreResult {
	result := domain.ScoreResult{
		Variant:     e.variant,
		CoreMetrics: snap.PopulatedCoreMetrics(),
	}

	if name, ok := disqualify(snap); ok {
		result.Disqualified = true
		result.Disqualifier = name
		result.Score = 0
		return result
	}

	total := 0.0
	for _, comp := range e.components(snap, flags, hist) {
		result.Components = append(result.Components, comp)
		total += comp.Points
	}

	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if result.CoreMetrics < e.minCore && score > e.capScore {
		score = e.capScore
		result.Capped = true
	}

	result.Score = score
	return result
}

// disqualify returns the name of the first hard disqualifier that applies.
func disqualify(snap *domain.TokenSnapshot) (string, bool) {
	if snap.Honeypot {
		return "honeypot", true
	}
	if snap.SellSimFailed && snap.FreezeAuthority {
		return "frozen_sell_path", true
	}
	return "", false
}

// components computes the weighted contributions. A component whose metric
// is absent contributes zero: sparse data is supposed to score low, and
// the completeness cap backstops the rest.
func (e *Engine) components(snap *domain.TokenSnapshot, flags []domain.RiskFlag, hist *History) []domain.ScoreComponent {
	comps := make([]domain.ScoreComponent, 0, 6)

	comps = append(comps, domain.ScoreComponent{
		Name:   "liquidity",
		Points: e.weights["liquidity"] * liquidityFactor(snap.LiquidityUSD),
	})
	comps = append(comps, domain.ScoreComponent{
		Name:   "holders",
		Points: e.weights["holders"] * holdersFactor(snap.HolderCount),
	})
	comps = append(comps, domain.ScoreComponent{
		Name:   "volume",
		Points: e.weights["volume"] * volumeFactor(snap.VolumeUSD5m),
	})
	comps = append(comps, domain.ScoreComponent{
		Name:   "velocity",
		Points: e.weights["velocity"] * velocityFactor(snap.HolderVelocity),
	})
	comps = append(comps, domain.ScoreComponent{
		Name:   "concentration",
		Points: e.weights["concentration"] * concentrationFactor(snap),
	})
	comps = append(comps, domain.ScoreComponent{
		Name:   "security",
		Points: e.weights["security"] * securityFactor(snap, flags),
	})

	return comps
}

// Factor functions normalize raw metrics to 0..1. Ramp constants are
// calibration values; weights in config control relative importance.

func liquidityFactor(liq *float64) float64 {
	if liq == nil || *liq <= 0 {
		return 0
	}
	return clamp01(*liq / 50_000)
}

func holdersFactor(holders *int64) float64 {
	if holders == nil || *holders <= 0 {
		return 0
	}
	return clamp01(float64(*holders) / 500)
}

func volumeFactor(vol *float64) float64 {
	if vol == nil || *vol <= 0 {
		return 0
	}
	return clamp01(*vol / 10_000)
}

func velocityFactor(v *float64) float64 {
	if v == nil || *v <= 0 {
		return 0
	}
	return clamp01(*v / 10)
}

func concentrationFactor(snap *domain.TokenSnapshot) float64 {
	conc := snap.Concentration
	if conc == nil {
		conc = snap.TopHolderPct
	}
	if conc == nil {
		return 0
	}
	return clamp01(1 - *conc)
}

func securityFactor(snap *domain.TokenSnapshot, flags []domain.RiskFlag) float64 {
	f := 1.0
	if snap.MintAuthority {
		f -= 0.4
	}
	if snap.FreezeAuthority {
		f -= 0.3
	}
	if snap.LPUnlocked || domain.HasFlag(flags, domain.FlagUnsecuredLiquidity) {
		f -= 0.3
	}
	if f < 0 {
		f = 0
	}
	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
