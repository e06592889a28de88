// Package signal evaluates a weighted rule table over fused metrics and
// accumulated risk flags, maps the net score to a discrete action, and
// decays stale decisions over time.
package signal

import "solana-token-radar/internal/domain"

// Input is everything one evaluation consumes. Non-snapshot context
// arrives as flags: the adapters that observe creator history, symbol
// reuse, and first-block clustering raise them upstream.
type Input struct {
	Snapshot *domain.TokenSnapshot
	Flags    []domain.RiskFlag // carried task flags merged with snapshot flags
	ScoreV2  domain.ScoreResult
	ScoreV3  domain.ScoreResult
}

// Evaluation is the outcome of one rule-table pass.
type Evaluation struct {
	NetScore   float64
	Fired      []domain.FiredRule
	Action     domain.Action
	GateReason string // non-empty when a gate forced the action
}
