package domain

// Action is the discrete outcome of signal evaluation, ordered from
// strongest to weakest.
type Action string

const (
	ActionStrongBuy Action = "STRONG_BUY"
	ActionBuy       Action = "BUY"
	ActionWatch     Action = "WATCH"
	ActionAvoid     Action = "AVOID"
)

// Rank returns the ladder position, 0 strongest. Unknown actions rank last.
func (a Action) Rank() int {
	switch a {
	case ActionStrongBuy:
		return 0
	case ActionBuy:
		return 1
	case ActionWatch:
		return 2
	case ActionAvoid:
		return 3
	default:
		return 4
	}
}

// SignalStatus is the lifecycle state of a standing decision. Active statuses
// mirror the action ladder; StatusExpired is terminal and reached only
// through decay. Decisions are never deleted.
type SignalStatus string

const (
	StatusStrongBuy SignalStatus = "strong_buy"
	StatusBuy       SignalStatus = "buy"
	StatusWatch     SignalStatus = "watch"
	StatusAvoid     SignalStatus = "avoid"
	StatusExpired   SignalStatus = "expired"
)

// StatusForAction maps an evaluated action to its decision status.
func StatusForAction(a Action) SignalStatus {
	switch a {
	case ActionStrongBuy:
		return StatusStrongBuy
	case ActionBuy:
		return StatusBuy
	case ActionWatch:
		return StatusWatch
	default:
		return StatusAvoid
	}
}

// IsActive reports whether the status still participates in decay.
func (s SignalStatus) IsActive() bool {
	return s == StatusStrongBuy || s == StatusBuy || s == StatusWatch
}

// FiredRule records one rule that contributed to a decision.
type FiredRule struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// SignalDecision is the single active decision for a token. Re-evaluation
// updates the existing record in place; only the decay sweep moves it to
// StatusExpired. Every state-changing write stamps UpdatedAt explicitly in
// the same operation.
type SignalDecision struct {
	Mint       string
	Status     SignalStatus
	NetScore   float64
	Fired      []FiredRule
	GateReason string // set when a hard or compound gate forced the outcome
	CreatedAt  int64  // ms
	UpdatedAt  int64  // ms, decay clock anchor
}
