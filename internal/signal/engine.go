package signal

import (
	"fmt"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
)

// Engine evaluates the rule table. Evaluation is a total function and must
// never block; any panic inside it is a logic bug, not a runtime condition.
type Engine struct {
	rules       []Rule
	strongBuyAt float64
	buyAt       float64
	watchAt     float64
	gateCount   int
	minHolders  int64
	minLiqUSD   float64
}

// NewEngine builds an engine from config.
func NewEngine(cfg config.SignalConfig) *Engine {
	return &Engine{
		rules:       buildRules(cfg.RuleWeights),
		strongBuyAt: cfg.StrongBuyAt,
		buyAt:       cfg.BuyAt,
		watchAt:     cfg.WatchAt,
		gateCount:   cfg.CompoundGateCount,
		minHolders:  cfg.MinHolders,
		minLiqUSD:   cfg.MinLiquidityUSD,
	}
}

// Rules exposes the active rule table for tests and diagnostics.
func (e *Engine) Rules() []Rule { return e.rules }

// Evaluate runs gates first, then the additive rule table. Gates
// short-circuit: when one triggers, the action is the lowest tier no
// matter what the rules sum to, though the sum is still computed and
// reported for observability.
func (e *Engine) Evaluate(in *Input) Evaluation {
	net, fired := e.sumRules(in)

	if reason, gated := e.hardFloor(in); gated {
		return Evaluation{NetScore: net, Fired: fired, Action: domain.ActionAvoid, GateReason: reason}
	}
	if reason, gated := e.compoundRisk(in); gated {
		return Evaluation{NetScore: net, Fired: fired, Action: domain.ActionAvoid, GateReason: reason}
	}

	return Evaluation{NetScore: net, Fired: fired, Action: e.ladder(net)}
}

// sumRules evaluates every rule independently; the net score is the exact
// sum of fired weights.
func (e *Engine) sumRules(in *Input) (float64, []domain.FiredRule) {
	var net float64
	var fired []domain.FiredRule

	for _, r := range e.rules {
		if !r.Predicate(in) {
			continue
		}
		net += r.Weight
		fired = append(fired, domain.FiredRule{Name: r.Name, Weight: r.Weight})
	}
	return net, fired
}

// hardFloor checks conditions that alone force the lowest action: a token
// with effectively no real participants or no real liquidity is not a
// trade, whatever else fired.
func (e *Engine) hardFloor(in *Input) (string, bool) {
	snap := in.Snapshot

	if snap.HolderCount != nil && *snap.HolderCount < e.minHolders {
		return fmt.Sprintf("near_zero_participants: %d holders", *snap.HolderCount), true
	}
	if snap.LiquidityUSD != nil && *snap.LiquidityUSD < e.minLiqUSD {
		return fmt.Sprintf("no_real_liquidity: $%.0f", *snap.LiquidityUSD), true
	}
	if snap.Honeypot {
		return "confirmed_honeypot", true
	}
	return "", false
}

// compoundRisk counts individually-weak flags. Reaching the configured
// count forces the lowest action even though no single flag would:
// activity-mimicking launches and genuine fraud produce statistically
// identical individual signals, and only the combination is diagnostic.
func (e *Engine) compoundRisk(in *Input) (string, bool) {
	count := 0
	for _, f := range domain.CompoundFlags() {
		if domain.HasFlag(in.Flags, f) || domain.HasFlag(in.Snapshot.Flags, f) {
			count++
		}
	}
	if count >= e.gateCount {
		return fmt.Sprintf("compound_risk: %d flags", count), true
	}
	return "", false
}

// ladder maps the net score to the highest qualifying tier.
func (e *Engine) ladder(net float64) domain.Action {
	switch {
	case net >= e.strongBuyAt:
		return domain.ActionStrongBuy
	case net >= e.buyAt:
		return domain.ActionBuy
	case net >= e.watchAt:
		return domain.ActionWatch
	default:
		return domain.ActionAvoid
	}
}
