package config

// Default returns the baseline configuration. Every value here is a
// recalibrated operational parameter, not an architectural constant.
func Default() *Config {
	return &Config{
		Workers:           3,
		ClaimBackoffMs:    500,
		ClaimLeaseSeconds: 120,
		Stages: map[string]StageConfig{
			"PRESCREEN": {
				OffsetSeconds:   15,
				AnchorDiscovery: true,
				Adapters:        []string{"mint_inspector", "sell_probe"},
				BudgetSeconds:   5,
				PruneBelow:      1, // any nonzero score passes; hard rejects do the real gating
				HardReject:      []string{"SELL_SIM_FAILED"},
			},
			"INITIAL": {
				OffsetSeconds:   120,
				AnchorDiscovery: true,
				Adapters:        []string{"mint_inspector", "market_data", "holder_scan", "security_scan", "creator_history"},
				BudgetSeconds:   30, // the one long-budget tier
				PruneBelow:      25,
			},
			"EARLY": {
				OffsetSeconds: 600,
				Adapters:      []string{"market_data", "holder_scan"},
				BudgetSeconds: 10,
				PruneBelow:    30,
			},
			"MID": {
				OffsetSeconds: 1800,
				Adapters:      []string{"market_data", "holder_scan", "security_scan"},
				BudgetSeconds: 10,
				PruneBelow:    35,
			},
			"LATE": {
				OffsetSeconds: 7200,
				Adapters:      []string{"market_data", "holder_scan"},
				BudgetSeconds: 10,
				PruneBelow:    40,
			},
			"FINAL": {
				OffsetSeconds: 21600,
				Adapters:      []string{"market_data", "holder_scan", "security_scan"},
				BudgetSeconds: 10,
				PruneBelow:    0, // terminal either way
			},
		},
		RateLimits: map[string]RateLimitConfig{
			"mint_inspector":  {RPS: 10, Burst: 20, BreakerThreshold: 5, CooldownSeconds: 5, MaxCooldownSecs: 300},
			"sell_probe":      {RPS: 5, Burst: 10, BreakerThreshold: 5, CooldownSeconds: 5, MaxCooldownSecs: 300},
			"market_data":     {RPS: 8, Burst: 16, BreakerThreshold: 5, CooldownSeconds: 10, MaxCooldownSecs: 600},
			"holder_scan":     {RPS: 4, Burst: 8, BreakerThreshold: 5, CooldownSeconds: 10, MaxCooldownSecs: 600},
			"security_scan":   {RPS: 2, Burst: 4, BreakerThreshold: 3, CooldownSeconds: 15, MaxCooldownSecs: 900},
			"creator_history": {RPS: 2, Burst: 4, BreakerThreshold: 3, CooldownSeconds: 15, MaxCooldownSecs: 900},
		},
		Scoring: ScoringConfig{
			MinCoreMetrics:      4,
			CapScore:            40,
			DivergenceThreshold: 20,
			V2Weights: map[string]float64{
				"liquidity":     25,
				"holders":       20,
				"volume":        20,
				"velocity":      10,
				"concentration": 15,
				"security":      10,
			},
			V3Weights: map[string]float64{
				"liquidity":     20,
				"holders":       15,
				"volume":        15,
				"velocity":      20,
				"concentration": 15,
				"security":      15,
			},
		},
		Signal: SignalConfig{
			RuleWeights: map[string]float64{
				"liquidity_depth":      8,
				"holder_growth":        10,
				"volume_surge":         8,
				"broad_distribution":   6,
				"sell_path_clear":      5,
				"score_consensus":      6,
				"concentrated_top":     -8,
				"thin_liquidity":       -6,
				"mint_authority_live":  -5,
				"lp_unlocked":          -6,
				"creator_repeat":       -7,
				"copycat_symbol":       -5,
				"stale_momentum":       -4,
			},
			StrongBuyAt:       24,
			BuyAt:             14,
			WatchAt:           5,
			CompoundGateCount: 3,
			MinHolders:        5,
			MinLiquidityUSD:   500,
		},
		Decay: DecayConfig{
			StrongBuyAfterHours: 4,
			BuyAfterHours:       6,
			WatchAfterHours:     12,
			SweepSeconds:        300,
		},
	}
}
