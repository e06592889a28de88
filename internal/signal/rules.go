package signal

import "solana-token-radar/internal/domain"

// Rule is one independent weighted predicate. Rules do not interact except
// through the final sum, which is what lets them be added, reweighted, or
// disabled from config without touching engine control flow.
type Rule struct {
	Name      string
	Weight    float64
	Predicate func(in *Input) bool
}

// rulePredicates is the full predicate table, keyed by rule name. A rule
// participates only when config assigns its name a weight.
var rulePredicates = map[string]func(in *Input) bool{
	"liquidity_depth": func(in *Input) bool {
		return in.Snapshot.LiquidityUSD != nil && *in.Snapshot.LiquidityUSD >= 10_000
	},
	"holder_growth": func(in *Input) bool {
		return in.Snapshot.HolderVelocity != nil && *in.Snapshot.HolderVelocity >= 3
	},
	"volume_surge": func(in *Input) bool {
		return in.Snapshot.VolumeUSD5m != nil && *in.Snapshot.VolumeUSD5m >= 5_000
	},
	"broad_distribution": func(in *Input) bool {
		return in.Snapshot.Concentration != nil && *in.Snapshot.Concentration <= 0.4
	},
	"sell_path_clear": func(in *Input) bool {
		return !in.Snapshot.SellSimFailed && !in.Snapshot.Honeypot
	},
	"score_consensus": func(in *Input) bool {
		return in.ScoreV2.Score >= 60 && in.ScoreV3.Score >= 60
	},
	"concentrated_top": func(in *Input) bool {
		return in.Snapshot.TopHolderPct != nil && *in.Snapshot.TopHolderPct >= 0.3
	},
	"thin_liquidity": func(in *Input) bool {
		return in.Snapshot.LiquidityUSD != nil && *in.Snapshot.LiquidityUSD < 2_000
	},
	"mint_authority_live": func(in *Input) bool {
		return in.Snapshot.MintAuthority
	},
	"lp_unlocked": func(in *Input) bool {
		return in.Snapshot.LPUnlocked || domain.HasFlag(in.Flags, domain.FlagUnsecuredLiquidity)
	},
	"creator_repeat": func(in *Input) bool {
		return domain.HasFlag(in.Flags, domain.FlagRepeatCreator)
	},
	"copycat_symbol": func(in *Input) bool {
		return domain.HasFlag(in.Flags, domain.FlagCopycatSymbol)
	},
	"stale_momentum": func(in *Input) bool {
		return in.Snapshot.HolderVelocity != nil && *in.Snapshot.HolderVelocity <= 0
	},
}

// buildRules resolves configured weights into the active rule table,
// keeping a stable order for deterministic fired-rule lists.
func buildRules(weights map[string]float64) []Rule {
	names := []string{
		"liquidity_depth",
		"holder_growth",
		"volume_surge",
		"broad_distribution",
		"sell_path_clear",
		"score_consensus",
		"concentrated_top",
		"thin_liquidity",
		"mint_authority_live",
		"lp_unlocked",
		"creator_repeat",
		"copycat_symbol",
		"stale_momentum",
	}

	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		w, ok := weights[name]
		if !ok || w == 0 {
			continue // rule disabled by config
		}
		rules = append(rules, Rule{Name: name, Weight: w, Predicate: rulePredicates[name]})
	}
	return rules
}

// RuleNames lists every known rule, for config validation and tests.
func RuleNames() []string {
	names := make([]string, 0, len(rulePredicates))
	for name := range rulePredicates {
		names = append(names, name)
	}
	return names
}
