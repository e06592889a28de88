// Package config holds every operationally recalibrated parameter: stage
// offsets, per-source rate limits, scoring weights, rule weights, gate
// thresholds, and the decay ladder. Values load from a JSON file so that
// recalibration never requires a code change.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StageConfig describes one enrichment stage. Static at runtime.
type StageConfig struct {
	// OffsetSeconds is the delay from the anchor to the stage's due time.
	OffsetSeconds int64 `json:"offset_seconds"`

	// AnchorDiscovery anchors the offset to discovery time instead of the
	// previous stage's completion. Early stages anchor to discovery.
	AnchorDiscovery bool `json:"anchor_discovery"`

	// Adapters lists the data source names to fan out to.
	Adapters []string `json:"adapters"`

	// BudgetSeconds is the total wall-clock fan-out budget.
	BudgetSeconds int64 `json:"budget_seconds"`

	// PruneBelow terminates the token's lifecycle when both scoring
	// variants land below this floor after the stage.
	PruneBelow int `json:"prune_below"`

	// HardReject lists risk flags that terminate the lifecycle outright
	// when raised during the stage, regardless of score. Prescreen uses
	// this to stop dead tokens before any paid source is queried.
	HardReject []string `json:"hard_reject"`
}

// Offset returns the stage offset as a duration.
func (s StageConfig) Offset() time.Duration {
	return time.Duration(s.OffsetSeconds) * time.Second
}

// Budget returns the fan-out budget as a duration.
func (s StageConfig) Budget() time.Duration {
	return time.Duration(s.BudgetSeconds) * time.Second
}

// RateLimitConfig configures one external source's shared limiter.
type RateLimitConfig struct {
	RPS              float64 `json:"rps"`
	Burst            int     `json:"burst"`
	BreakerThreshold int     `json:"breaker_threshold"`     // consecutive failures before tripping
	CooldownSeconds  int64   `json:"cooldown_seconds"`      // base cooldown, doubles per trip
	MaxCooldownSecs  int64   `json:"max_cooldown_seconds"`
}

// ScoringConfig holds both variants' weights plus the shared contract.
type ScoringConfig struct {
	MinCoreMetrics      int                `json:"min_core_metrics"`     // completeness gate threshold
	CapScore            int                `json:"cap_score"`            // score ceiling under the gate
	DivergenceThreshold int                `json:"divergence_threshold"` // |v2-v3| above this is logged
	V2Weights           map[string]float64 `json:"v2_weights"`
	V3Weights           map[string]float64 `json:"v3_weights"`
}

// SignalConfig holds rule weights, the action ladder, and gate thresholds.
type SignalConfig struct {
	RuleWeights       map[string]float64 `json:"rule_weights"`
	StrongBuyAt       float64            `json:"strong_buy_at"`
	BuyAt             float64            `json:"buy_at"`
	WatchAt           float64            `json:"watch_at"`
	CompoundGateCount int                `json:"compound_gate_count"` // flags needed to force AVOID
	MinHolders        int64              `json:"min_holders"`         // hard floor: near-zero participants
	MinLiquidityUSD   float64            `json:"min_liquidity_usd"`   // hard floor: no real liquidity
}

// DecayConfig is the downgrade ladder, each threshold measured from the
// decision's last update, not its creation.
type DecayConfig struct {
	StrongBuyAfterHours float64 `json:"strong_buy_after_hours"` // strong_buy -> buy
	BuyAfterHours       float64 `json:"buy_after_hours"`        // buy -> watch
	WatchAfterHours     float64 `json:"watch_after_hours"`      // watch -> expired
	SweepSeconds        int64   `json:"sweep_seconds"`
}

// SweepInterval returns the decay sweep period.
func (d DecayConfig) SweepInterval() time.Duration {
	return time.Duration(d.SweepSeconds) * time.Second
}

// Config is the full recalibratable surface.
type Config struct {
	Workers           int                        `json:"workers"`
	ClaimBackoffMs    int64                      `json:"claim_backoff_ms"`    // sleep when the queue is empty
	ClaimLeaseSeconds int64                      `json:"claim_lease_seconds"` // stale-claim recovery deadline
	Stages            map[string]StageConfig     `json:"stages"`
	RateLimits        map[string]RateLimitConfig `json:"rate_limits"`
	Scoring           ScoringConfig              `json:"scoring"`
	Signal            SignalConfig               `json:"signal"`
	Decay             DecayConfig                `json:"decay"`
}

// ClaimBackoff returns the empty-queue backoff duration.
func (c *Config) ClaimBackoff() time.Duration {
	return time.Duration(c.ClaimBackoffMs) * time.Millisecond
}

// ClaimLease returns how long a claimed task may stay unacknowledged
// before it is released back to the queue.
func (c *Config) ClaimLease() time.Duration {
	return time.Duration(c.ClaimLeaseSeconds) * time.Second
}

// Load reads a JSON config file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the scheduler cannot run with.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Scoring.MinCoreMetrics <= 0 {
		return fmt.Errorf("scoring.min_core_metrics must be positive")
	}
	if c.Scoring.CapScore <= 0 || c.Scoring.CapScore > 100 {
		return fmt.Errorf("scoring.cap_score must be in 1..100, got %d", c.Scoring.CapScore)
	}
	if c.Signal.CompoundGateCount <= 0 {
		return fmt.Errorf("signal.compound_gate_count must be positive")
	}
	if c.Signal.StrongBuyAt <= c.Signal.BuyAt || c.Signal.BuyAt <= c.Signal.WatchAt {
		return fmt.Errorf("signal ladder must be strictly descending: strong_buy_at > buy_at > watch_at")
	}
	for name, st := range c.Stages {
		if st.BudgetSeconds <= 0 {
			return fmt.Errorf("stage %s: budget_seconds must be positive", name)
		}
		if st.OffsetSeconds < 0 {
			return fmt.Errorf("stage %s: offset_seconds must not be negative", name)
		}
	}
	return nil
}
